package service

import (
	"context"
	"errors"
	"path"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/infra/facerec"
	"attendance_server/server/common/log"
	"attendance_server/server/common/validate"
)

const (
	lectureEntity       = "lectures"
	downloadConcurrency = 4
)

var errNoEnrolledStudents = errors.New("no enrolled students in division")

type LectureService struct {
	repo     LectureRepository
	subjects SubjectRepository
	students StudentRepository
	verifier FaceVerifier
	policy   UploadPolicy
	deps     Deps
}

func NewLectureService(repo LectureRepository, subjects SubjectRepository, students StudentRepository, verifier FaceVerifier, policy UploadPolicy, deps Deps) *LectureService {
	return &LectureService{
		repo:     repo,
		subjects: subjects,
		students: students,
		verifier: verifier,
		policy:   policy,
		deps:     deps.withDefaults(),
	}
}

// Create stores the lecture photos under the subject and lecture id and then
// the lecture row. Objects already stored are removed when a later step
// fails.
func (s *LectureService) Create(ctx context.Context, in domain.LectureInput, files []FileUpload) (domain.Lecture, error) {
	validate.TrimStrings(&in)
	if err := validate.Struct(in).Err(); err != nil {
		return domain.Lecture{}, err
	}
	if err := s.policy.Validate(files); err != nil {
		return domain.Lecture{}, err
	}
	subject, err := s.subjects.Get(ctx, in.SubjectID)
	if err != nil {
		return domain.Lecture{}, err
	}

	comp := NewCompensator("lecture.create")
	defer comp.Rollback(ctx)

	id := uuid.NewString()
	images, err := s.deps.Uploader.UploadAll(ctx, comp, lectureEntity, path.Join(lectureEntity, subject.ID, id), files)
	if err != nil {
		log.Errorf("lecture upload failed id=%s: %v", id, err)
		return domain.Lecture{}, err
	}

	lecture, err := s.repo.Create(ctx, domain.Lecture{
		ID:         id,
		SubjectID:  subject.ID,
		Date:       in.Date,
		Division:   in.Division,
		Attendance: []domain.AttendanceEntry{},
		Images:     images,
	})
	if err != nil {
		log.Errorf("lecture save failed id=%s: %v", id, err)
		return domain.Lecture{}, err
	}
	lecture.Subject = &subject

	comp.Commit()
	publish(ctx, s.deps.Events, EventLectureCreated, id, map[string]any{
		"subject_id": subject.ID,
		"division":   lecture.Division,
		"images":     len(lecture.Images),
	})
	return lecture, nil
}

// Get serves the lecture from the cache when it can. The subject is never
// cached with it and is read fresh on every call.
func (s *LectureService) Get(ctx context.Context, id string) (domain.Lecture, error) {
	key := cacheKey(lectureEntity, id)
	if cached, ok := cacheGet[domain.Lecture](ctx, s.deps.Cache, key); ok {
		subject, err := s.subjects.Get(ctx, cached.SubjectID)
		if err == nil {
			cached.Subject = &subject
			return cached, nil
		}
		log.Warnf("cached lecture %s dropped: subject %s: %v", id, cached.SubjectID, err)
		cacheDrop(ctx, s.deps.Cache, key)
	}
	lecture, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Lecture{}, err
	}
	bare := lecture
	bare.Subject = nil
	cacheSet(ctx, s.deps.Cache, key, bare)
	return lecture, nil
}

func (s *LectureService) List(ctx context.Context) ([]domain.Lecture, error) {
	return s.repo.List(ctx)
}

func (s *LectureService) Update(ctx context.Context, id string, patch domain.LecturePatch) (domain.Lecture, error) {
	validate.TrimStrings(&patch)
	if err := validate.Struct(patch).Err(); err != nil {
		return domain.Lecture{}, err
	}
	lecture, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Lecture{}, err
	}
	cacheDrop(ctx, s.deps.Cache, cacheKey(lectureEntity, id))
	return lecture, nil
}

func (s *LectureService) Delete(ctx context.Context, id string) error {
	lecture, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	DeleteObjects(ctx, s.deps.Store, lectureEntity, lecture.Images)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	cacheDrop(ctx, s.deps.Cache, cacheKey(lectureEntity, id))
	publish(ctx, s.deps.Events, EventLectureDeleted, id, nil)
	return nil
}

// GenerateAttendance marks the lecture present when it has at least one
// photo. With a verifier configured the attendance list is rebuilt from the
// faces matched on the photos; a verifier failure leaves the list as it was.
func (s *LectureService) GenerateAttendance(ctx context.Context, id string) (domain.Lecture, error) {
	lecture, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Lecture{}, err
	}

	present := len(lecture.Images) > 0
	attendance := lecture.Attendance
	if present && s.verifier != nil && s.verifier.Enabled() {
		rebuilt, err := s.verify(ctx, lecture)
		faceRequestsTotal.WithLabelValues("verify", result(err)).Inc()
		if err != nil {
			log.Warnf("attendance verification skipped lecture=%s: %v", id, err)
		} else {
			attendance = rebuilt
		}
	}

	updated, err := s.repo.SetAttendance(ctx, id, present, attendance)
	if err != nil {
		return domain.Lecture{}, err
	}
	cacheDrop(ctx, s.deps.Cache, cacheKey(lectureEntity, id))
	publish(ctx, s.deps.Events, EventAttendanceGenerated, id, map[string]any{
		"present":    updated.Present,
		"attendance": len(updated.Attendance),
	})
	return updated, nil
}

func (s *LectureService) verify(ctx context.Context, lecture domain.Lecture) ([]domain.AttendanceEntry, error) {
	students, err := s.students.ListEnrolled(ctx, lecture.Division)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, errNoEnrolledStudents
	}

	images, err := s.download(ctx, lecture.Images)
	if err != nil {
		return nil, err
	}

	known := make([]facerec.KnownFace, 0, len(students))
	for _, st := range students {
		for _, e := range st.Embeddings {
			known = append(known, facerec.KnownFace{ID: st.RollNumber, Embedding: e.Embedding})
		}
	}

	matches, err := s.verifier.VerifyAttendance(ctx, images, known)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, m := range matches {
		matched = append(matched, m.MatchedIDs...)
	}

	out := make([]domain.AttendanceEntry, 0, len(students))
	for _, st := range students {
		out = append(out, domain.AttendanceEntry{
			RollNumber: st.RollNumber,
			Present:    slices.Contains(matched, st.RollNumber),
		})
	}
	return out, nil
}

func (s *LectureService) download(ctx context.Context, files []domain.StoredFile) ([]facerec.File, error) {
	out := make([]facerec.File, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			data, err := s.deps.Store.Get(gctx, f.Key)
			if err != nil {
				return err
			}
			out[i] = facerec.File{Name: path.Base(f.Key), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
