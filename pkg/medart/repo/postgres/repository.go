package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/medical-artists/pkg/medart"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements medart.ImageRepository using PostgreSQL
type Repository struct {
	db DBTX
}

var _ medart.ImageRepository = (*Repository)(nil)

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return medart.ErrImageNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", medart.ErrImageExists, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("check %s failed in %s", pgErr.ConstraintName, operation)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const imageColumns = `id, owner_id, object_key, filename, content_type, size_bytes,
	width, height, status, created_at, updated_at`

func (r *Repository) CreateImage(ctx context.Context, image *medart.Image) error {
	query := `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		image.ID, image.OwnerID, image.Key, image.Filename, image.ContentType, image.Size,
		image.Width, image.Height, string(image.Status), image.CreatedAt, image.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create image", err)
	}
	return nil
}

func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*medart.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	image, err := scanImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get image", err)
	}
	return image, nil
}

func (r *Repository) UpdateImageStatus(ctx context.Context, id uuid.UUID, status medart.ImageStatus) error {
	query := `UPDATE images SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return r.handlePostgresError("update image status", err)
	}
	if tag.RowsAffected() == 0 {
		return medart.ErrImageNotFound
	}
	return nil
}

func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*medart.Image, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, string(medart.ImageStatusPending), cutoff, limit)
	if err != nil {
		return nil, r.handlePostgresError("list pending images", err)
	}
	defer rows.Close()

	var images []*medart.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan image", err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list pending images", err)
	}
	return images, nil
}

func scanImage(row pgx.Row) (*medart.Image, error) {
	var image medart.Image
	var status string
	err := row.Scan(
		&image.ID, &image.OwnerID, &image.Key, &image.Filename, &image.ContentType, &image.Size,
		&image.Width, &image.Height, &status, &image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		return nil, err
	}
	image.Status = medart.ImageStatus(status)
	return &image, nil
}
