package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/dfryer1193/samplestore/shared/db"
)

var _ domain.SampleRepository = (*SQLiteSampleRepository)(nil)

// SQLiteSampleRepository implements domain.SampleRepository on the samples table.
// Every query goes through db.GetExecutor so it joins a transaction carried in ctx.
type SQLiteSampleRepository struct {
	db *sql.DB
}

func NewSampleRepository(sqlDB *sql.DB) *SQLiteSampleRepository {
	return &SQLiteSampleRepository{
		db: sqlDB,
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

const insertSampleQuery = `
	INSERT INTO samples (base_name, image_path, label_path, created_at)
	VALUES (?, ?, ?, ?)
`

func (r *SQLiteSampleRepository) Insert(ctx context.Context, baseName, imagePath, labelPath string) (*domain.Sample, error) {
	if baseName == "" || imagePath == "" || labelPath == "" {
		return nil, fmt.Errorf("sample base name and paths cannot be empty")
	}

	createdAt := time.Now().UTC()

	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertSampleQuery,
		baseName,
		imagePath,
		labelPath,
		createdAt,
	)
	if err != nil {
		return nil, unavailable("insert sample", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, unavailable("read inserted sample id", err)
	}

	return &domain.Sample{
		ID:        id,
		BaseName:  baseName,
		ImagePath: imagePath,
		LabelPath: labelPath,
		CreatedAt: createdAt,
	}, nil
}

const getSampleQuery = `
	SELECT id, base_name, image_path, label_path, created_at
	FROM samples
	WHERE id = ?
`

func (r *SQLiteSampleRepository) GetByID(ctx context.Context, id int64) (*domain.Sample, error) {
	var row sampleRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getSampleQuery, id).Scan(
		&row.ID,
		&row.BaseName,
		&row.ImagePath,
		&row.LabelPath,
		&row.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get sample", err)
	}

	return row.toDomain(), nil
}

const listSamplesQuery = `
	SELECT id, base_name, image_path, label_path, created_at
	FROM samples
	ORDER BY id ASC
	LIMIT ? OFFSET ?
`

const countSamplesQuery = `SELECT COUNT(*) FROM samples`

func (r *SQLiteSampleRepository) List(ctx context.Context, page, size int) ([]*domain.Sample, int64, error) {
	if page < 0 || size < 1 {
		return nil, 0, fmt.Errorf("invalid page window: page=%d size=%d", page, size)
	}

	executor := db.GetExecutor(ctx, r.db)

	var total int64
	if err := executor.QueryRowContext(ctx, countSamplesQuery).Scan(&total); err != nil {
		return nil, 0, unavailable("count samples", err)
	}

	// A window whose offset does not fit in int64 lies past every row.
	if int64(page) > math.MaxInt64/int64(size) {
		return make([]*domain.Sample, 0), total, nil
	}

	rows, err := executor.QueryContext(ctx, listSamplesQuery, size, int64(page)*int64(size))
	if err != nil {
		return nil, 0, unavailable("list samples", err)
	}
	defer rows.Close()

	samples := make([]*domain.Sample, 0, size)
	for rows.Next() {
		var row sampleRow
		if err := rows.Scan(
			&row.ID,
			&row.BaseName,
			&row.ImagePath,
			&row.LabelPath,
			&row.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, unavailable("iterate samples", err)
	}

	return samples, total, nil
}

const deleteSampleQuery = `DELETE FROM samples WHERE id = ?`

func (r *SQLiteSampleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deleteSampleQuery, id)
	if err != nil {
		return false, unavailable("delete sample", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("read deleted row count", err)
	}

	return affected > 0, nil
}

// sampleRow is a private struct used to scan database rows
type sampleRow struct {
	ID        int64        `db:"id"`
	BaseName  string       `db:"base_name"`
	ImagePath string       `db:"image_path"`
	LabelPath string       `db:"label_path"`
	CreatedAt sql.NullTime `db:"created_at"`
}

func (sr *sampleRow) toDomain() *domain.Sample {
	s := &domain.Sample{
		ID:        sr.ID,
		BaseName:  sr.BaseName,
		ImagePath: sr.ImagePath,
		LabelPath: sr.LabelPath,
	}

	if sr.CreatedAt.Valid {
		s.CreatedAt = sr.CreatedAt.Time.UTC()
	}

	return s
}
