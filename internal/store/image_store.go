package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Munene001/bigosbackend/internal/domain"
)

type ImageStore struct {
	db *sql.DB
}

func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

func (s *ImageStore) Create(ctx context.Context, propertyID int64, imageURL string, isPrimary bool) (*domain.Image, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO images (property_id, image_url, is_primary) VALUES (?, ?, ?)
	`, propertyID, imageURL, isPrimary)
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ImageStore) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	img := &domain.Image{}
	err := s.db.QueryRowContext(ctx, `
		SELECT image_id, property_id, image_url, is_primary, created_at FROM images WHERE image_id = ?
	`, id).Scan(&img.ID, &img.PropertyID, &img.ImageURL, &img.IsPrimary, &img.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return img, nil
}

// ListByProperty returns all images for a property, primary first.
func (s *ImageStore) ListByProperty(ctx context.Context, propertyID int64) ([]*domain.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT image_id, property_id, image_url, is_primary, created_at FROM images
		WHERE property_id = ? ORDER BY is_primary DESC, image_id ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return collectImages(rows)
}

// GetPrimary returns the property's primary image, or nil if it has none.
func (s *ImageStore) GetPrimary(ctx context.Context, propertyID int64) (*domain.Image, error) {
	img := &domain.Image{}
	err := s.db.QueryRowContext(ctx, `
		SELECT image_id, property_id, image_url, is_primary, created_at FROM images
		WHERE property_id = ? AND is_primary = 1 LIMIT 1
	`, propertyID).Scan(&img.ID, &img.PropertyID, &img.ImageURL, &img.IsPrimary, &img.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get primary image: %w", err)
	}

	return img, nil
}

// ListGallery returns the property's non-primary images.
func (s *ImageStore) ListGallery(ctx context.Context, propertyID int64) ([]*domain.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT image_id, property_id, image_url, is_primary, created_at FROM images
		WHERE property_id = ? AND is_primary = 0 ORDER BY image_id ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return collectImages(rows)
}

func (s *ImageStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM images WHERE image_id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("image not found")
	}

	return nil
}

func (s *ImageStore) DeleteByProperty(ctx context.Context, propertyID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM images WHERE property_id = ?
	`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}

	return nil
}

func (s *ImageStore) DeleteGalleryByProperty(ctx context.Context, propertyID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM images WHERE property_id = ? AND is_primary = 0
	`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete gallery images: %w", err)
	}

	return nil
}

func collectImages(rows *sql.Rows) ([]*domain.Image, error) {
	var images []*domain.Image
	for rows.Next() {
		img := &domain.Image{}
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.ImageURL, &img.IsPrimary, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}
