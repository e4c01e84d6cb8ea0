package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/infra/facerec"
)

type MockTeacherRepository struct {
	mock.Mock
}

func (m *MockTeacherRepository) Create(ctx context.Context, t domain.Teacher) (domain.Teacher, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) Get(ctx context.Context, id string) (domain.Teacher, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) List(ctx context.Context) ([]domain.Teacher, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) Update(ctx context.Context, id string, in domain.TeacherInput) (domain.Teacher, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTeacherRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) Create(ctx context.Context, s domain.Subject) (domain.Subject, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Get(ctx context.Context, id string) (domain.Subject, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) List(ctx context.Context) ([]domain.Subject, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Update(ctx context.Context, id string, in domain.SubjectInput) (domain.Subject, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSubjectRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, s domain.Student) (domain.Student, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Student), args.Error(1)
}

func (m *MockStudentRepository) Get(ctx context.Context, id string) (domain.Student, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Student), args.Error(1)
}

func (m *MockStudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentRepository) ListEnrolled(ctx context.Context, division string) ([]domain.Student, error) {
	args := m.Called(ctx, division)
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentRepository) Update(ctx context.Context, id string, patch domain.StudentPatch) (domain.Student, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Student), args.Error(1)
}

func (m *MockStudentRepository) SetEmbeddings(ctx context.Context, id string, embeddings []domain.Embedding) error {
	return m.Called(ctx, id, embeddings).Error(0)
}

func (m *MockStudentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockLectureRepository struct {
	mock.Mock
}

func (m *MockLectureRepository) Create(ctx context.Context, l domain.Lecture) (domain.Lecture, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(domain.Lecture), args.Error(1)
}

func (m *MockLectureRepository) Get(ctx context.Context, id string) (domain.Lecture, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Lecture), args.Error(1)
}

func (m *MockLectureRepository) List(ctx context.Context) ([]domain.Lecture, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Lecture), args.Error(1)
}

func (m *MockLectureRepository) Update(ctx context.Context, id string, patch domain.LecturePatch) (domain.Lecture, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Lecture), args.Error(1)
}

func (m *MockLectureRepository) SetAttendance(ctx context.Context, id string, present bool, attendance []domain.AttendanceEntry) (domain.Lecture, error) {
	args := m.Called(ctx, id, present, attendance)
	return args.Get(0).(domain.Lecture), args.Error(1)
}

func (m *MockLectureRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) GenerateEmbeddings(ctx context.Context, files []facerec.File) ([]facerec.Embedding, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facerec.Embedding), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockVerifier) VerifyAttendance(ctx context.Context, images []facerec.File, known []facerec.KnownFace) ([]facerec.Match, error) {
	args := m.Called(ctx, images, known)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facerec.Match), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, payload any) error {
	return m.Called(ctx, key, payload).Error(0)
}

var errBoom = errors.New("boom")

// fakeStore keeps objects in memory and records every call.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	deletes []string
	// failPutAt fails the n-th Put (1-based); 0 never fails.
	failPutAt int
	failGet   bool
	failDel   map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, failDel: map[string]bool{}}
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	if s.failPutAt > 0 && len(s.puts) == s.failPutAt {
		return "", errBoom
	}
	s.objects[key] = data
	return key, nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errBoom
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return bytes.Clone(data), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failDel[key] {
		return errBoom
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) URL(string) string {
	return ""
}

func (s *fakeStore) stored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

func (s *fakeStore) deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func jpg(name string) FileUpload {
	data := []byte("\xff\xd8\xff\xe0 fake jpeg " + name)
	return FileUpload{Name: name, Size: int64(len(data)), ContentType: "image/jpeg", Data: data}
}
