package service

import (
	"context"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/infra/facerec"
)

type TeacherRepository interface {
	Create(ctx context.Context, t domain.Teacher) (domain.Teacher, error)
	Get(ctx context.Context, id string) (domain.Teacher, error)
	List(ctx context.Context) ([]domain.Teacher, error)
	Update(ctx context.Context, id string, in domain.TeacherInput) (domain.Teacher, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type SubjectRepository interface {
	Create(ctx context.Context, s domain.Subject) (domain.Subject, error)
	Get(ctx context.Context, id string) (domain.Subject, error)
	List(ctx context.Context) ([]domain.Subject, error)
	Update(ctx context.Context, id string, in domain.SubjectInput) (domain.Subject, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type StudentRepository interface {
	Create(ctx context.Context, s domain.Student) (domain.Student, error)
	Get(ctx context.Context, id string) (domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	ListEnrolled(ctx context.Context, division string) ([]domain.Student, error)
	Update(ctx context.Context, id string, patch domain.StudentPatch) (domain.Student, error)
	SetEmbeddings(ctx context.Context, id string, embeddings []domain.Embedding) error
	Delete(ctx context.Context, id string) error
}

type LectureRepository interface {
	Create(ctx context.Context, l domain.Lecture) (domain.Lecture, error)
	Get(ctx context.Context, id string) (domain.Lecture, error)
	List(ctx context.Context) ([]domain.Lecture, error)
	Update(ctx context.Context, id string, patch domain.LecturePatch) (domain.Lecture, error)
	SetAttendance(ctx context.Context, id string, present bool, attendance []domain.AttendanceEntry) (domain.Lecture, error)
	Delete(ctx context.Context, id string) error
}

// Embedder is the embedding side of the face recognition service.
// A disabled embedder returns (nil, nil).
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, files []facerec.File) ([]facerec.Embedding, error)
}

type FaceVerifier interface {
	Enabled() bool
	VerifyAttendance(ctx context.Context, images []facerec.File, known []facerec.KnownFace) ([]facerec.Match, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}
