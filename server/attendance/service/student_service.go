package service

import (
	"context"
	"path"

	"github.com/google/uuid"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/log"
	"attendance_server/server/common/validate"
)

const studentEntity = "students"

type StudentService struct {
	repo     StudentRepository
	embedder Embedder
	policy   UploadPolicy
	deps     Deps
}

func NewStudentService(repo StudentRepository, embedder Embedder, policy UploadPolicy, deps Deps) *StudentService {
	return &StudentService{repo: repo, embedder: embedder, policy: policy, deps: deps.withDefaults()}
}

// Create uploads the student's images, stores the student and attaches face
// embeddings when the recognizer returns any. If an upload or a database
// write fails, every object stored so far and the row itself are removed
// before the error is returned. A recognizer failure keeps the student
// without embeddings.
func (s *StudentService) Create(ctx context.Context, in domain.StudentInput, files []FileUpload) (domain.Student, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Student{}, err
	}
	if err := s.policy.Validate(files); err != nil {
		return domain.Student{}, err
	}

	comp := NewCompensator("student.create")
	defer comp.Rollback(ctx)

	images, err := s.deps.Uploader.UploadAll(ctx, comp, studentEntity, path.Join(studentEntity, in.RollNumber), files)
	if err != nil {
		log.Errorf("student upload failed rollNumber=%s: %v", in.RollNumber, err)
		return domain.Student{}, err
	}

	student, err := s.repo.Create(ctx, domain.Student{
		ID:         uuid.NewString(),
		Name:       in.Name,
		RollNumber: in.RollNumber,
		Division:   in.Division,
		Images:     images,
	})
	if err != nil {
		log.Errorf("student save failed rollNumber=%s: %v", in.RollNumber, err)
		return domain.Student{}, err
	}
	id := student.ID
	comp.Add("delete student "+id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})

	if embeddings := s.embed(ctx, files, images); len(embeddings) > 0 {
		if err := s.repo.SetEmbeddings(ctx, id, embeddings); err != nil {
			log.Errorf("student embeddings save failed id=%s: %v", id, err)
			return domain.Student{}, err
		}
		student.Embeddings = embeddings
	}

	comp.Commit()
	publish(ctx, s.deps.Events, EventStudentCreated, id, map[string]any{
		"rollNumber": student.RollNumber,
		"division":   student.Division,
		"images":     len(student.Images),
	})
	return student, nil
}

func (s *StudentService) embed(ctx context.Context, files []FileUpload, images []domain.StoredFile) []domain.Embedding {
	if s.embedder == nil {
		return nil
	}
	items, err := s.embedder.GenerateEmbeddings(ctx, toFaceFiles(files, images))
	faceRequestsTotal.WithLabelValues("embeddings", result(err)).Inc()
	if err != nil {
		log.Warnf("%v", apperr.Embedding("embedding generation failed", err))
		return nil
	}
	out := make([]domain.Embedding, 0, len(items))
	for _, item := range items {
		out = append(out, domain.Embedding{Image: item.Image, Embedding: item.Embedding})
	}
	return out
}

func (s *StudentService) Get(ctx context.Context, id string) (domain.Student, error) {
	key := cacheKey(studentEntity, id)
	if cached, ok := cacheGet[domain.Student](ctx, s.deps.Cache, key); ok {
		return cached, nil
	}
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Student{}, err
	}
	cacheSet(ctx, s.deps.Cache, key, student)
	return student, nil
}

func (s *StudentService) List(ctx context.Context) ([]domain.Student, error) {
	return s.repo.List(ctx)
}

func (s *StudentService) Update(ctx context.Context, id string, patch domain.StudentPatch) (domain.Student, error) {
	validate.TrimStrings(&patch)
	if err := validate.Struct(patch).Err(); err != nil {
		return domain.Student{}, err
	}
	student, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Student{}, err
	}
	cacheDrop(ctx, s.deps.Cache, cacheKey(studentEntity, id))
	return student, nil
}

// Delete removes the student's stored images and then the row. Object
// deletion failures are logged and do not stop the row removal.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	DeleteObjects(ctx, s.deps.Store, studentEntity, student.Images)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	cacheDrop(ctx, s.deps.Cache, cacheKey(studentEntity, id))
	publish(ctx, s.deps.Events, EventStudentDeleted, id, map[string]any{"rollNumber": student.RollNumber})
	return nil
}
