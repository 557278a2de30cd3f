// Package images stores camera frames on disk and serves them back.
package images

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"robot-explorer/api/internal/explore"
	"robot-explorer/api/internal/util"
)

// Dir is a directory of uploaded frames. References returned by Save are
// relative to the parent of the directory ("uploads/pos_1_2_ab12cd34.jpg").
type Dir struct {
	Root string
}

func New(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("images: create %s: %w", root, err)
	}
	return &Dir{Root: root}, nil
}

// FileName builds the stored name for a frame taken at p.
func FileName(p explore.Position, mime string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("pos_%d_%d_%s.%s", p.X, p.Y, id, util.ExtForMIME(mime))
}

// Save writes data and returns the image reference to record.
func (d *Dir) Save(p explore.Position, data []byte, mime string) (string, error) {
	name := FileName(p, mime)
	tmp, err := os.CreateTemp(d.Root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("images: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.Root, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: rename: %w", err)
	}
	return d.ref(name), nil
}

// Remove deletes a previously saved frame. Missing files are ignored.
func (d *Dir) Remove(ref string) error {
	path, err := d.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves a reference or bare file name to a path inside Root.
func (d *Dir) Path(ref string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + ref))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("images: bad reference %q", ref)
	}
	return filepath.Join(d.Root, name), nil
}

// Read returns the stored bytes for ref.
func (d *Dir) Read(ref string) ([]byte, error) {
	path, err := d.Path(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Handler serves GET /uploads/{file}.
func (d *Dir) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, err := d.Path(r.PathValue("file"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	})
}

func (d *Dir) ref(name string) string {
	return filepath.ToSlash(filepath.Join(filepath.Base(d.Root), name))
}
