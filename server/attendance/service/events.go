package service

import (
	"context"
	"time"

	"attendance_server/server/common/infra/cache"
	"attendance_server/server/common/log"
)

const (
	EventStudentCreated      = "student.created"
	EventStudentDeleted      = "student.deleted"
	EventLectureCreated      = "lecture.created"
	EventLectureDeleted      = "lecture.deleted"
	EventAttendanceGenerated = "lecture.attendance_generated"
)

type Event struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// publish never fails the caller; a lost event is only logged.
func publish(ctx context.Context, p Publisher, eventType, id string, data any) {
	err := p.Publish(context.WithoutCancel(ctx), eventType, Event{Type: eventType, ID: id, Data: data, At: time.Now().UTC()})
	if err != nil {
		log.Warnf("publish %s id=%s failed: %v", eventType, id, err)
	}
}

func cacheKey(entity, id string) string {
	return entity + ":" + id
}

func cacheGet[T any](ctx context.Context, c cache.Store, key string) (T, bool) {
	var v T
	ok, err := c.Get(ctx, key, &v)
	if err != nil {
		log.Warnf("cache get %s failed: %v", key, err)
		return v, false
	}
	return v, ok
}

func cacheSet(ctx context.Context, c cache.Store, key string, v any) {
	if err := c.Set(ctx, key, v); err != nil {
		log.Warnf("cache set %s failed: %v", key, err)
	}
}

func cacheDrop(ctx context.Context, c cache.Store, keys ...string) {
	if err := c.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		log.Warnf("cache delete %v failed: %v", keys, err)
	}
}
