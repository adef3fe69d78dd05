package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/google/uuid"
)

var _ domain.FileStore = (*LocalStore)(nil)

// Kind names a subdirectory of the upload root.
type Kind string

const (
	KindImage Kind = "images"
	KindLabel Kind = "labels"
)

var kinds = []Kind{KindImage, KindLabel}

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// LocalStore keeps uploaded files under <root>/images and <root>/labels.
// Stored paths are root-prefixed slash paths such as "uploads/images/<name>.png".
type LocalStore struct {
	fs   billy.Filesystem
	root string
}

// NewLocalStore opens the upload root on the host filesystem.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %q: %w", root, err)
	}
	return NewStore(osfs.New(root), root)
}

// NewStore wraps an arbitrary billy filesystem already rooted at the upload
// directory. root is only used as the prefix of stored paths.
func NewStore(fs billy.Filesystem, root string) (*LocalStore, error) {
	root = path.Clean(strings.ReplaceAll(root, "\\", "/"))
	if root == "" || root == "." {
		return nil, fmt.Errorf("upload root cannot be empty")
	}

	for _, k := range kinds {
		if err := fs.MkdirAll(string(k), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", k, err)
		}
	}

	return &LocalStore{fs: fs, root: root}, nil
}

// Root returns the stored-path prefix.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) NewBaseName() string {
	return uuid.NewString()
}

func (s *LocalStore) SaveImage(ctx context.Context, baseName, originalFilename string, content io.Reader) (string, error) {
	return s.save(ctx, KindImage, baseName, originalFilename, content)
}

func (s *LocalStore) SaveLabel(ctx context.Context, baseName, originalFilename string, content io.Reader) (string, error) {
	return s.save(ctx, KindLabel, baseName, originalFilename, content)
}

func (s *LocalStore) save(ctx context.Context, kind Kind, baseName, originalFilename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validName(baseName) {
		return "", fmt.Errorf("invalid base name %q", baseName)
	}

	name := baseName + extension(originalFilename)
	rel := path.Join(string(kind), name)

	f, err := s.fs.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s file: %w: %w", kind, domain.ErrStorageUnavailable, err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		s.fs.Remove(rel)
		return "", fmt.Errorf("failed to write %s file: %w: %w", kind, domain.ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(rel)
		return "", fmt.Errorf("failed to close %s file: %w: %w", kind, domain.ErrStorageUnavailable, err)
	}

	return path.Join(s.root, rel), nil
}

// ReadFile returns the content at a stored path.
func (s *LocalStore) ReadFile(ctx context.Context, storedPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := s.relative(storedPath)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(rel)
	if err != nil {
		return nil, notFoundOr(err, "open "+storedPath)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", storedPath, err)
	}
	return data, nil
}

// OverwriteLabel replaces the content of an existing label in place.
func (s *LocalStore) OverwriteLabel(ctx context.Context, storedPath string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, err := s.relative(storedPath)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(rel, string(KindLabel)+"/") {
		return fmt.Errorf("%q is not a label path", storedPath)
	}

	f, err := s.fs.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open label for writing: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write label: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close label: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStore) Remove(ctx context.Context, storedPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, err := s.relative(storedPath)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(rel); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", storedPath, err)
	}
	return nil
}

// Open returns a stored file for serving along with its modification time.
// filename must be a single path element.
func (s *LocalStore) Open(kind Kind, filename string) (io.ReadSeekCloser, time.Time, error) {
	if kind != KindImage && kind != KindLabel {
		return nil, time.Time{}, fmt.Errorf("unknown kind %q: %w", kind, domain.ErrFileNotFound)
	}
	if !validName(filename) {
		return nil, time.Time{}, fmt.Errorf("invalid filename %q: %w", filename, domain.ErrFileNotFound)
	}

	rel := path.Join(string(kind), filename)

	info, err := s.fs.Stat(rel)
	if err != nil {
		return nil, time.Time{}, notFoundOr(err, "stat "+rel)
	}
	if info.IsDir() {
		return nil, time.Time{}, fmt.Errorf("%s is a directory: %w", rel, domain.ErrFileNotFound)
	}

	f, err := s.fs.Open(rel)
	if err != nil {
		return nil, time.Time{}, notFoundOr(err, "open "+rel)
	}
	return f, info.ModTime(), nil
}

// relative maps a stored path back to a path inside the filesystem root and
// rejects anything that escapes it.
func (s *LocalStore) relative(storedPath string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(storedPath, "\\", "/"))

	rel, ok := strings.CutPrefix(clean, s.root+"/")
	if !ok {
		return "", fmt.Errorf("path %q is outside the upload root: %w", storedPath, domain.ErrFileNotFound)
	}

	dir, name := path.Split(rel)
	if (dir != string(KindImage)+"/" && dir != string(KindLabel)+"/") || !validName(name) {
		return "", fmt.Errorf("path %q is outside the upload root: %w", storedPath, domain.ErrFileNotFound)
	}
	return rel, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to %s: %w", op, domain.ErrFileNotFound)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// extension keeps the original suffix only when it is a plain alphanumeric extension.
func extension(originalFilename string) string {
	ext := path.Ext(strings.ReplaceAll(originalFilename, "\\", "/"))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
