package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/google/uuid"
)

func newMemStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := NewStore(memfs.New(), "uploads")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"cat.png", ".png"},
		{"scan.JPEG", ".JPEG"},
		{"labels.txt", ".txt"},
		{"archive.tar.gz", ".gz"},
		{"noext", ""},
		{"weird.p ng", ""},
		{"dir/evil.png", ".png"},
		{`C:\photos\cat.jpg`, ".jpg"},
		{"trailingdot.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extension(tt.filename); got != tt.want {
				t.Errorf("extension(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestLocalStore_NewBaseName(t *testing.T) {
	store := newMemStore(t)

	a, b := store.NewBaseName(), store.NewBaseName()
	if a == b {
		t.Errorf("NewBaseName() returned duplicate %q", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("NewBaseName() = %q, not a uuid: %v", a, err)
	}
}

func TestLocalStore_SavePairSharesBaseName(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()
	base := store.NewBaseName()

	imagePath, err := store.SaveImage(ctx, base, "cat.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	labelPath, err := store.SaveLabel(ctx, base, "cat.txt", strings.NewReader("2 0.1 0.2 0.3 0.4 0.5 0.6\n"))
	if err != nil {
		t.Fatalf("SaveLabel() error = %v", err)
	}

	if imagePath != "uploads/images/"+base+".png" {
		t.Errorf("image path = %q", imagePath)
	}
	if labelPath != "uploads/labels/"+base+".txt" {
		t.Errorf("label path = %q", labelPath)
	}

	data, err := store.ReadFile(ctx, imagePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("image content = %q", data)
	}
}

func TestLocalStore_SaveRefusesToClobber(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	if _, err := store.SaveImage(ctx, "fixed", "a.png", strings.NewReader("one")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if _, err := store.SaveImage(ctx, "fixed", "b.png", strings.NewReader("two")); err == nil {
		t.Error("second SaveImage() with the same name expected error")
	}

	data, _ := store.ReadFile(ctx, "uploads/images/fixed.png")
	if string(data) != "one" {
		t.Errorf("content = %q, want original", data)
	}
}

func TestLocalStore_SaveRejectsBadBaseName(t *testing.T) {
	store := newMemStore(t)

	for _, base := range []string{"", "..", "a/b"} {
		if _, err := store.SaveLabel(context.Background(), base, "x.txt", strings.NewReader("")); err == nil {
			t.Errorf("SaveLabel(base=%q) expected error", base)
		}
	}
}

func TestLocalStore_SaveHonorsCancelledContext(t *testing.T) {
	store := newMemStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.SaveImage(ctx, "b", "a.png", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("SaveImage() error = %v, want context.Canceled", err)
	}
}

func TestLocalStore_OverwriteLabel(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	labelPath, err := store.SaveLabel(ctx, "base", "l.txt", strings.NewReader("0 1 2 3 4 5 6 7 8\nextra line\n"))
	if err != nil {
		t.Fatalf("SaveLabel() error = %v", err)
	}

	if err := store.OverwriteLabel(ctx, labelPath, strings.NewReader("short")); err != nil {
		t.Fatalf("OverwriteLabel() error = %v", err)
	}

	data, err := store.ReadFile(ctx, labelPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "short" {
		t.Errorf("content after overwrite = %q, want %q", data, "short")
	}
}

func TestLocalStore_OverwriteLabelRejectsImages(t *testing.T) {
	store := newMemStore(t)

	if err := store.OverwriteLabel(context.Background(), "uploads/images/x.png", strings.NewReader("")); err == nil {
		t.Error("OverwriteLabel() on an image path expected error")
	}
}

func TestLocalStore_ReadFileErrors(t *testing.T) {
	store := newMemStore(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing file", "uploads/labels/missing.txt"},
		{"outside root", "elsewhere/labels/a.txt"},
		{"traversal", "uploads/labels/../../etc/passwd"},
		{"unknown kind dir", "uploads/other/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.ReadFile(context.Background(), tt.path)
			if !errors.Is(err, domain.ErrFileNotFound) {
				t.Errorf("ReadFile(%q) error = %v, want ErrFileNotFound", tt.path, err)
			}
		})
	}
}

func TestLocalStore_Remove(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()

	p, err := store.SaveImage(ctx, "gone", "a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	if err := store.Remove(ctx, p); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, p); err != nil {
		t.Errorf("Remove() of missing file error = %v, want nil", err)
	}
	if _, err := store.ReadFile(ctx, p); !errors.Is(err, domain.ErrFileNotFound) {
		t.Errorf("ReadFile() after Remove error = %v", err)
	}
}

func TestLocalStore_Open(t *testing.T) {
	store := newMemStore(t)
	if _, err := store.SaveImage(context.Background(), "served", "a.png", strings.NewReader("bytes")); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	f, _, err := store.Open(KindImage, "served.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil || string(data) != "bytes" {
		t.Errorf("Open() content = %q, err = %v", data, err)
	}

	for _, tc := range []struct {
		kind Kind
		name string
	}{
		{KindImage, "nonexistent.png"},
		{KindLabel, "served.png"},
		{KindImage, "../labels"},
		{KindImage, ".."},
		{Kind("secrets"), "served.png"},
	} {
		if _, _, err := store.Open(tc.kind, tc.name); !errors.Is(err, domain.ErrFileNotFound) {
			t.Errorf("Open(%s, %q) error = %v, want ErrFileNotFound", tc.kind, tc.name, err)
		}
	}
}

func TestNewLocalStore_OnDisk(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")

	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	for _, k := range kinds {
		info, err := os.Stat(filepath.Join(root, string(k)))
		if err != nil || !info.IsDir() {
			t.Errorf("%s directory not created: %v", k, err)
		}
	}

	p, err := store.SaveLabel(context.Background(), "disk", "l.txt", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("SaveLabel() error = %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "labels", "disk.txt"))
	if err != nil {
		t.Fatalf("label not written to disk: %v", err)
	}
	if string(onDisk) != "content" {
		t.Errorf("disk content = %q", onDisk)
	}

	got, err := store.ReadFile(context.Background(), p)
	if err != nil || string(got) != "content" {
		t.Errorf("ReadFile(%q) = %q, %v", p, got, err)
	}
}
