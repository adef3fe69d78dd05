package domain

import (
	"context"
	"io"
	"time"
)

// Sample is one stored image/label pair.
// BaseName is the generated identifier shared by both files.
type Sample struct {
	ID        int64
	BaseName  string
	ImagePath string
	LabelPath string
	CreatedAt time.Time
}

// Point is a polygon vertex in the label file's coordinate space.
type Point struct {
	X float64
	Y float64
}

// Label is one parsed annotation line: a class id followed by polygon vertices.
type Label struct {
	ClassID int
	Polygon []Point
}

type SampleRepository interface {
	// Insert stores a new row and returns it with ID and CreatedAt assigned
	Insert(ctx context.Context, baseName, imagePath, labelPath string) (*Sample, error)

	// GetByID returns nil, nil when no row has the id
	GetByID(ctx context.Context, id int64) (*Sample, error)

	// List returns one page in ascending id order and the total row count
	List(ctx context.Context, page, size int) ([]*Sample, int64, error)

	// Delete reports whether a row was removed
	Delete(ctx context.Context, id int64) (bool, error)
}

type FileStore interface {
	NewBaseName() string
	SaveImage(ctx context.Context, baseName, originalFilename string, content io.Reader) (string, error)
	SaveLabel(ctx context.Context, baseName, originalFilename string, content io.Reader) (string, error)
	ReadFile(ctx context.Context, storedPath string) ([]byte, error)
	OverwriteLabel(ctx context.Context, storedPath string, content io.Reader) error
	Remove(ctx context.Context, storedPath string) error
}
