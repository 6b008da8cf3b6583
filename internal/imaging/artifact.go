package imaging

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Artifact is a transient image file that exists for the duration of one scan.
//
// The file name carries a random UUID, so concurrent scans sharing a
// directory never collide. The creator owns the artifact and must call
// Release when done; Release is idempotent.
type Artifact struct {
	Path string

	once sync.Once
	err  error
}

// WriteArtifact stores raw bytes as a new artifact in dir (os.TempDir() when empty).
//
// The file is named <prefix>-<uuid><ext>. It is created exclusively with
// mode 0600; a partially written file is removed before returning an error.
func WriteArtifact(dir, prefix, ext string, data []byte) (*Artifact, error) {
	f, path, err := createUnique(dir, prefix, ext)
	if err != nil {
		return nil, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}

	return &Artifact{Path: path}, nil
}

// EncodeArtifact stores img as a PNG artifact in dir (os.TempDir() when empty).
//
// PNG is lossless, so the contrast boost survives to the recognizer intact.
func EncodeArtifact(dir, prefix string, img image.Image) (*Artifact, error) {
	f, path, err := createUnique(dir, prefix, ".png")
	if err != nil {
		return nil, err
	}

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}

	return &Artifact{Path: path}, nil
}

// Release deletes the artifact file. Only the first call touches the
// filesystem; later calls return the first result. A file that is already
// gone counts as released.
func (a *Artifact) Release() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		err := os.Remove(a.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.err = fmt.Errorf("failed to remove artifact %s: %w", a.Path, err)
		}
	})
	return a.err
}

func createUnique(dir, prefix, ext string) (*os.File, string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create artifact: %w", err)
	}
	return f, path, nil
}
