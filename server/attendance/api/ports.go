package api

import (
	"context"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/attendance/service"
)

type TeacherService interface {
	Create(ctx context.Context, in domain.TeacherInput) (domain.Teacher, error)
	Get(ctx context.Context, id string) (domain.Teacher, error)
	List(ctx context.Context) ([]domain.Teacher, error)
	Update(ctx context.Context, id string, in domain.TeacherInput) (domain.Teacher, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type SubjectService interface {
	Create(ctx context.Context, in domain.SubjectInput) (domain.Subject, error)
	Get(ctx context.Context, id string) (domain.Subject, error)
	List(ctx context.Context) ([]domain.Subject, error)
	Update(ctx context.Context, id string, in domain.SubjectInput) (domain.Subject, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type StudentService interface {
	Create(ctx context.Context, in domain.StudentInput, files []service.FileUpload) (domain.Student, error)
	Get(ctx context.Context, id string) (domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	Update(ctx context.Context, id string, patch domain.StudentPatch) (domain.Student, error)
	Delete(ctx context.Context, id string) error
}

type LectureService interface {
	Create(ctx context.Context, in domain.LectureInput, files []service.FileUpload) (domain.Lecture, error)
	Get(ctx context.Context, id string) (domain.Lecture, error)
	List(ctx context.Context) ([]domain.Lecture, error)
	Update(ctx context.Context, id string, patch domain.LecturePatch) (domain.Lecture, error)
	Delete(ctx context.Context, id string) error
	GenerateAttendance(ctx context.Context, id string) (domain.Lecture, error)
}
