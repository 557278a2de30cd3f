package images

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-explorer/api/internal/explore"
)

var namePattern = regexp.MustCompile(`^pos_-?\d+_-?\d+_[0-9a-f]{8}\.(jpg|png)$`)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return d
}

func TestFileName(t *testing.T) {
	n := FileName(explore.Position{X: -2, Y: 5}, "image/png")
	assert.Regexp(t, namePattern, n)
	assert.Contains(t, n, "pos_-2_5_")
	assert.NotEqual(t, n, FileName(explore.Position{X: -2, Y: 5}, "image/png"))
}

func TestSaveReadRemove(t *testing.T) {
	d := newTestDir(t)
	data := []byte{0xFF, 0xD8, 0x01}

	ref, err := d.Save(explore.Position{X: 1, Y: 2}, data, "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, `^uploads/pos_1_2_[0-9a-f]{8}\.jpg$`, ref)

	got, err := d.Read(ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, d.Remove(ref))
	_, err = os.Stat(filepath.Join(d.Root, filepath.Base(ref)))
	assert.True(t, os.IsNotExist(err))

	// second remove is fine
	assert.NoError(t, d.Remove(ref))

	entries, err := os.ReadDir(d.Root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestPathStaysInsideRoot(t *testing.T) {
	d := newTestDir(t)
	p, err := d.Path("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Root, "passwd"), p)

	_, err = d.Path("")
	assert.Error(t, err)
	_, err = d.Path(".upload-123")
	assert.Error(t, err)
}

func TestHandlerServesFile(t *testing.T) {
	d := newTestDir(t)
	ref, err := d.Save(explore.Position{}, []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("GET /uploads/{file}", d.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+ref, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
