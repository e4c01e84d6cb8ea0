package service

import (
	"context"

	"github.com/google/uuid"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/log"
	"attendance_server/server/common/validate"
)

type SubjectService struct {
	repo     SubjectRepository
	teachers TeacherRepository
}

func NewSubjectService(repo SubjectRepository, teachers TeacherRepository) *SubjectService {
	return &SubjectService{repo: repo, teachers: teachers}
}

// Create stores a subject and returns it with its teacher populated.
func (s *SubjectService) Create(ctx context.Context, in domain.SubjectInput) (domain.Subject, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Subject{}, err
	}
	teacher, err := s.teachers.Get(ctx, in.TeacherID)
	if err != nil {
		return domain.Subject{}, err
	}
	created, err := s.repo.Create(ctx, domain.Subject{ID: uuid.NewString(), Name: in.Name, TeacherID: teacher.ID})
	if err != nil {
		return domain.Subject{}, err
	}
	created.Teacher = &teacher
	return created, nil
}

func (s *SubjectService) Get(ctx context.Context, id string) (domain.Subject, error) {
	return s.repo.Get(ctx, id)
}

func (s *SubjectService) List(ctx context.Context) ([]domain.Subject, error) {
	return s.repo.List(ctx)
}

func (s *SubjectService) Update(ctx context.Context, id string, in domain.SubjectInput) (domain.Subject, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Subject{}, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *SubjectService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *SubjectService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err == nil {
		log.Warnf("deleted all subjects count=%d", n)
	}
	return n, err
}
