package service

import (
	"context"

	"attendance_server/server/common/infra/cache"
	"attendance_server/server/common/infra/object"
)

// Deps are the collaborators shared by the services that own stored files.
type Deps struct {
	Store    object.Store
	Uploader *Uploader
	Cache    cache.Store
	Events   Publisher
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Uploader == nil && d.Store != nil {
		d.Uploader = NewUploader(d.Store, 1)
	}
	return d
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
