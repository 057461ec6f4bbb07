package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	KindImage = "IMAGE"
	KindVideo = "VIDEO"
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("file exceeds upload limit")
	ErrNotFound        = errors.New("file not found")
	ErrInvalidName     = errors.New("invalid file name")
)

var allowed = map[string]string{
	"image/jpeg":      KindImage,
	"image/png":       KindImage,
	"image/gif":       KindImage,
	"image/webp":      KindImage,
	"video/mp4":       KindVideo,
	"video/webm":      KindVideo,
	"video/quicktime": KindVideo,
}

// Stored describes a saved upload. Posts keep only URL and Kind.
type Stored struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Kind        string `json:"media_type"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store resolves uploads to URL references
type Store interface {
	Save(ctx context.Context, r io.Reader) (*Stored, error)
	Path(name string) (string, error)
	Delete(name string) error
}

// LocalStore keeps uploads in a directory on disk
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates dir if needed. baseURL is prefixed to stored file names.
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// Save sniffs the content, rejects anything that is not an allowed image or video and writes it under a random name
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (*Stored, error) {
	limit := s.maxBytes
	if limit <= 0 {
		limit = 50 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt := mimetype.Detect(data)
	kind, contentType := classify(mt)
	if kind == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &Stored{
		Filename:    name,
		URL:         s.baseURL + "/" + name,
		Kind:        kind,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func classify(mt *mimetype.MIME) (kind, contentType string) {
	for m := mt; m != nil; m = m.Parent() {
		if k, ok := allowed[strings.SplitN(m.String(), ";", 2)[0]]; ok {
			return k, m.String()
		}
	}
	return "", ""
}

// Path returns the on-disk location of a stored file
func (s *LocalStore) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	p := filepath.Join(s.dir, name)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return p, nil
}

func (s *LocalStore) Delete(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
