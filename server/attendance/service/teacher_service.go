package service

import (
	"context"

	"github.com/google/uuid"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/log"
	"attendance_server/server/common/validate"
)

type TeacherService struct {
	repo TeacherRepository
}

func NewTeacherService(repo TeacherRepository) *TeacherService {
	return &TeacherService{repo: repo}
}

func (s *TeacherService) Create(ctx context.Context, in domain.TeacherInput) (domain.Teacher, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Teacher{}, err
	}
	return s.repo.Create(ctx, domain.Teacher{ID: uuid.NewString(), Name: in.Name})
}

func (s *TeacherService) Get(ctx context.Context, id string) (domain.Teacher, error) {
	return s.repo.Get(ctx, id)
}

func (s *TeacherService) List(ctx context.Context) ([]domain.Teacher, error) {
	return s.repo.List(ctx)
}

func (s *TeacherService) Update(ctx context.Context, id string, in domain.TeacherInput) (domain.Teacher, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Teacher{}, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *TeacherService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *TeacherService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err == nil {
		log.Warnf("deleted all teachers count=%d", n)
	}
	return n, err
}
