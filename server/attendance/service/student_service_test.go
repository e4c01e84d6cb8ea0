package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/cache"
	"attendance_server/server/common/infra/facerec"
)

type studentFixture struct {
	repo     *MockStudentRepository
	embedder *MockEmbedder
	events   *MockPublisher
	store    *fakeStore
	svc      *StudentService
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()
	f := &studentFixture{
		repo:     new(MockStudentRepository),
		embedder: new(MockEmbedder),
		events:   new(MockPublisher),
		store:    newFakeStore(),
	}
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewStudentService(f.repo, f.embedder, DefaultUploadPolicy(true), Deps{
		Store:    f.store,
		Uploader: NewUploader(f.store, 1),
		Cache:    cache.NewLRUStore(16, time.Minute),
		Events:   f.events,
	})
	return f
}

func validStudent() domain.StudentInput {
	return domain.StudentInput{Name: "  Asha Rao ", RollNumber: "CS101", Division: "A"}
}

func TestStudentCreateStoresEveryFileAndEmbeddings(t *testing.T) {
	f := newStudentFixture(t)
	var saved domain.Student
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Student")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Student) }).
		Return(domain.Student{ID: "st-1", Name: "Asha Rao", RollNumber: "CS101", Division: "A"}, nil).Once()
	f.embedder.On("GenerateEmbeddings", mock.Anything, mock.MatchedBy(func(files []facerec.File) bool {
		return len(files) == 2
	})).Return([]facerec.Embedding{{Image: "1_0.jpg", Embedding: []float64{0.1, 0.2}}}, nil).Once()
	f.repo.On("SetEmbeddings", mock.Anything, "st-1", []domain.Embedding{{Image: "1_0.jpg", Embedding: []float64{0.1, 0.2}}}).
		Return(nil).Once()

	got, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("front.jpg"), jpg("side.png")})
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", saved.Name)
	assert.NotEmpty(t, saved.ID)
	require.Len(t, saved.Images, 2)
	for _, img := range saved.Images {
		assert.Contains(t, img.Key, "students/CS101/")
	}
	assert.Len(t, f.store.stored(), 2)
	assert.Len(t, got.Embeddings, 1)
	assert.Empty(t, f.store.deleted())
	f.repo.AssertExpectations(t)
	f.embedder.AssertExpectations(t)
	f.events.AssertCalled(t, "Publish", mock.Anything, EventStudentCreated, mock.Anything)
}

func TestStudentCreateWithoutEmbeddingsField(t *testing.T) {
	f := newStudentFixture(t)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(domain.Student{ID: "st-1"}, nil).Once()
	f.embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, nil).Once()

	got, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg")})
	require.NoError(t, err)
	assert.Nil(t, got.Embeddings)
	f.repo.AssertNotCalled(t, "SetEmbeddings", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assert.Len(t, f.store.stored(), 1)
}

func TestStudentCreateEmbeddingFailureIsSoft(t *testing.T) {
	f := newStudentFixture(t)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(domain.Student{ID: "st-1"}, nil).Once()
	f.embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, errBoom).Once()

	got, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "st-1", got.ID)
	assert.Empty(t, f.store.deleted())
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStudentCreateReportsEveryInvalidField(t *testing.T) {
	f := newStudentFixture(t)

	_, err := f.svc.Create(context.Background(), domain.StudentInput{Name: "   "}, []FileUpload{jpg("a.jpg")})
	require.ErrorIs(t, err, apperr.ErrValidation)
	msg := apperr.Message(err)
	assert.Contains(t, msg, `"name" is required`)
	assert.Contains(t, msg, `"rollNumber" is required`)
	assert.Contains(t, msg, `"division" is required`)
	assert.Empty(t, f.store.puts)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStudentCreateRejectsFilesBeforeUploading(t *testing.T) {
	f := newStudentFixture(t)

	_, err := f.svc.Create(context.Background(), validStudent(), nil)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "At least one image is required", apperr.Message(err))

	_, err = f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg"), {Name: "b.gif", Size: 3}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.store.puts)
}

func TestStudentCreateUploadFailureRemovesEarlierObjects(t *testing.T) {
	f := newStudentFixture(t)
	f.store.failPutAt = 2

	_, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg"), jpg("b.jpg"), jpg("c.jpg")})
	require.ErrorIs(t, err, apperr.ErrStorage)
	assert.Equal(t, f.store.puts[:1], f.store.deleted())
	assert.Empty(t, f.store.stored())
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.embedder.AssertNotCalled(t, "GenerateEmbeddings", mock.Anything, mock.Anything)
}

func TestStudentCreateSaveFailureRemovesAllObjects(t *testing.T) {
	f := newStudentFixture(t)
	conflict := apperr.Conflict("Roll number already exists", errBoom)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(domain.Student{}, conflict).Once()

	_, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg"), jpg("b.jpg")})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, f.store.deleted(), 2)
	assert.Empty(t, f.store.stored())
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStudentCreateEmbeddingSaveFailureRemovesRecord(t *testing.T) {
	f := newStudentFixture(t)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(domain.Student{ID: "st-1"}, nil).Once()
	f.embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).
		Return([]facerec.Embedding{{Image: "a", Embedding: []float64{1}}}, nil).Once()
	f.repo.On("SetEmbeddings", mock.Anything, "st-1", mock.Anything).Return(errBoom).Once()
	f.repo.On("Delete", mock.Anything, "st-1").Return(nil).Once()

	_, err := f.svc.Create(context.Background(), validStudent(), []FileUpload{jpg("a.jpg")})
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, f.store.stored())
	f.repo.AssertExpectations(t)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, EventStudentCreated, mock.Anything)
}

func TestStudentDeleteRemovesObjectsThenRow(t *testing.T) {
	f := newStudentFixture(t)
	images := []domain.StoredFile{{Key: "students/R1/1_0.jpg"}, {Key: "students/R1/1_1.jpg"}, {Key: "students/R1/1_2.jpg"}}
	f.store.failDel["students/R1/1_1.jpg"] = true
	f.repo.On("Get", mock.Anything, "st-1").Return(domain.Student{ID: "st-1", RollNumber: "R1", Images: images}, nil).Once()
	f.repo.On("Delete", mock.Anything, "st-1").Return(nil).Once()

	require.NoError(t, f.svc.Delete(context.Background(), "st-1"))
	assert.ElementsMatch(t, []string{"students/R1/1_0.jpg", "students/R1/1_1.jpg", "students/R1/1_2.jpg"}, f.store.deleted())
	f.repo.AssertExpectations(t)
	f.events.AssertCalled(t, "Publish", mock.Anything, EventStudentDeleted, mock.Anything)
}

func TestStudentDeleteMissing(t *testing.T) {
	f := newStudentFixture(t)
	f.repo.On("Get", mock.Anything, "nope").Return(domain.Student{}, apperr.NotFound("Student not found")).Once()

	err := f.svc.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.store.deleted())
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStudentGetIsCachedUntilUpdate(t *testing.T) {
	f := newStudentFixture(t)
	f.repo.On("Get", mock.Anything, "st-1").Return(domain.Student{ID: "st-1", Name: "Asha"}, nil).Twice()
	name := "Asha R"
	f.repo.On("Update", mock.Anything, "st-1", domain.StudentPatch{Name: &name}).
		Return(domain.Student{ID: "st-1", Name: name}, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := f.svc.Get(context.Background(), "st-1")
		require.NoError(t, err)
		assert.Equal(t, "Asha", got.Name)
	}
	padded := "  Asha R  "
	_, err := f.svc.Update(context.Background(), "st-1", domain.StudentPatch{Name: &padded})
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), "st-1")
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestStudentUpdateValidates(t *testing.T) {
	f := newStudentFixture(t)
	roll := "CS-101"
	_, err := f.svc.Update(context.Background(), "st-1", domain.StudentPatch{RollNumber: &roll})
	require.ErrorIs(t, err, apperr.ErrValidation)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
