package facerec

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestGenerateEmbeddingsSendsFilesAndNormalizesNames(t *testing.T) {
	var gotNames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, generateEmbeddingsPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		for _, fh := range r.MultipartForm.File["files"] {
			gotNames = append(gotNames, fh.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": []map[string]any{{"filename": "1_00.jpg", "embedding": []float64{0.1, 0.2}}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoints: []string{srv.URL + "/"}, Enabled: true})
	out, err := c.GenerateEmbeddings(context.Background(), []File{
		{Name: "1_00.jpg", Data: []byte("a")},
		{Name: "1_01.jpg", Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1_00.jpg", "1_01.jpg"}, gotNames)
	require.Len(t, out, 1)
	assert.Equal(t, "1_00.jpg", out[0].Image)
	assert.Empty(t, out[0].Filename)
	assert.Equal(t, []float64{0.1, 0.2}, out[0].Embedding)
}

func TestGenerateEmbeddingsWithoutEmbeddingsField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"detail":"no faces"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoints: []string{srv.URL}, Enabled: true})
	out, err := c.GenerateEmbeddings(context.Background(), []File{{Name: "a.jpg", Data: []byte("x")}})
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestDisabledClientIsSilent(t *testing.T) {
	c := NewClient(Config{Endpoints: []string{"http://127.0.0.1:1"}, Enabled: false})
	assert.False(t, c.Enabled())
	out, err := c.GenerateEmbeddings(context.Background(), []File{{Name: "a.jpg"}})
	assert.NoError(t, err)
	assert.Nil(t, out)

	assert.False(t, NewClient(Config{Enabled: true}).Enabled())
}

func TestFailsOverOnServerErrorsAndCoolsDown(t *testing.T) {
	var badCalls, goodCalls int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&badCalls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&goodCalls, 1)
		_, _ = io.WriteString(w, `{"embeddings":[]}`)
	}))
	defer good.Close()

	c := NewClient(Config{
		Endpoints:        []string{bad.URL, good.URL},
		Enabled:          true,
		FailThreshold:    1,
		EndpointCooldown: time.Minute,
	})
	for i := 0; i < 4; i++ {
		out, err := c.GenerateEmbeddings(context.Background(), []File{{Name: "a.jpg", Data: []byte("x")}})
		require.NoError(t, err)
		assert.Empty(t, out)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&badCalls))
	assert.Equal(t, int32(4), atomic.LoadInt32(&goodCalls))
}

func TestClientErrorIsNotFailedOver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoints: []string{srv.URL}, Enabled: true})
	_, err := c.GenerateEmbeddings(context.Background(), []File{{Name: "a.jpg", Data: []byte("x")}})
	assert.ErrorContains(t, err, "status 422")
}

func TestVerifyAttendance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, verifyAttendancePath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		var known []KnownFace
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("known_embeddings_json")), &known))
		require.Len(t, known, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []Match{{File: "class.jpg", MatchedIDs: []string{known[0].ID}}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoints: []string{srv.URL}, Enabled: true})
	res, err := c.VerifyAttendance(context.Background(),
		[]File{{Name: "class.jpg", Data: []byte("x")}},
		[]KnownFace{{ID: "CS101", Embedding: []float64{1}}},
	)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []string{"CS101"}, res[0].MatchedIDs)
}

func TestShrink(t *testing.T) {
	big := pngBytes(t, 400, 100)
	out := shrink(big, 100)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 25, cfg.Height)

	small := pngBytes(t, 50, 50)
	assert.Equal(t, small, shrink(small, 100))
	assert.Equal(t, []byte("not an image"), shrink([]byte("not an image"), 100))
	assert.Equal(t, big, shrink(big, -1))
}
