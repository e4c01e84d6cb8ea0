package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_uploads_total",
		Help: "Object storage uploads by entity and result",
	}, []string{"entity", "result"})

	uploadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_upload_bytes_total",
		Help: "Bytes written to object storage by entity",
	}, []string{"entity"})

	compensationStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_compensation_steps_total",
		Help: "Rollback steps run after a failed create, by operation and result",
	}, []string{"operation", "result"})

	storageCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_storage_cleanup_total",
		Help: "Object deletions performed while removing records",
	}, []string{"entity", "result"})

	faceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_face_requests_total",
		Help: "Calls to the face recognition service by kind and result",
	}, []string{"kind", "result"})
)

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
