package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Munene001/bigosbackend/internal/blobstore"
	"github.com/Munene001/bigosbackend/internal/domain"
)

var (
	ErrPropertyNotFound     = errors.New("property not found")
	ErrImageNotFound        = errors.New("image not found")
	ErrPrimaryImageRequired = errors.New("primary image required")
)

// ImageFile is an uploaded image held in memory, ready to be written to the
// blob store.
type ImageFile struct {
	Data     []byte
	MimeType string
}

// propertyRepository is the subset of store.PropertyStore that PropertyService requires.
type propertyRepository interface {
	Create(ctx context.Context, f domain.PropertyFields) (*domain.Property, error)
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	List(ctx context.Context, listingType string) ([]*domain.Property, error)
	Update(ctx context.Context, id int64, f domain.PropertyFields) error
	Delete(ctx context.Context, id int64) error
	Filter(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, error)
	Count(ctx context.Context, f domain.PropertyFilter) (int, error)
}

// imageRepository is the subset of store.ImageStore that PropertyService requires.
type imageRepository interface {
	Create(ctx context.Context, propertyID int64, imageURL string, isPrimary bool) (*domain.Image, error)
	GetByID(ctx context.Context, id int64) (*domain.Image, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]*domain.Image, error)
	GetPrimary(ctx context.Context, propertyID int64) (*domain.Image, error)
	ListGallery(ctx context.Context, propertyID int64) ([]*domain.Image, error)
	Delete(ctx context.Context, id int64) error
	DeleteByProperty(ctx context.Context, propertyID int64) error
	DeleteGalleryByProperty(ctx context.Context, propertyID int64) error
}

// PropertyService keeps property records, image records, and stored image
// files consistent across create, update, and delete.
type PropertyService struct {
	properties propertyRepository
	images     imageRepository
	blobs      blobstore.BlobStore
	logger     *slog.Logger
}

func NewPropertyService(
	properties propertyRepository,
	images imageRepository,
	blobs blobstore.BlobStore,
	logger *slog.Logger,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		images:     images,
		blobs:      blobs,
		logger:     logger,
	}
}

// Create persists a new property with its primary image and any gallery
// images. The primary image is mandatory: without one the whole operation
// fails and the property record is removed again. A gallery image that fails
// to store is logged and skipped without affecting the rest.
func (s *PropertyService) Create(ctx context.Context, fields domain.PropertyFields, primary *ImageFile, gallery []*ImageFile) (*domain.Property, error) {
	property, err := s.properties.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.logger.Info("property created", "property_id", property.ID, "gallery_files", len(gallery))

	if primary == nil {
		s.rollbackCreate(ctx, property.ID, "")
		return nil, ErrPrimaryImageRequired
	}

	primaryURL, err := s.blobs.Save(ctx, primary.MimeType, bytes.NewReader(primary.Data))
	if err != nil {
		s.rollbackCreate(ctx, property.ID, "")
		return nil, fmt.Errorf("failed to save primary image: %w", err)
	}
	if _, err := s.images.Create(ctx, property.ID, primaryURL, true); err != nil {
		s.rollbackCreate(ctx, property.ID, primaryURL)
		return nil, fmt.Errorf("failed to create primary image record: %w", err)
	}

	for i, g := range gallery {
		if err := s.addGalleryImage(ctx, property.ID, g); err != nil {
			s.logger.Error("skipping failed gallery image", "property_id", property.ID, "index", i, "error", err)
		}
	}

	return s.Get(ctx, property.ID)
}

// rollbackCreate undoes a partially completed Create: image files first, then
// image records, then the property record. orphanURL is a blob that was
// written but never got a record.
func (s *PropertyService) rollbackCreate(ctx context.Context, propertyID int64, orphanURL string) {
	images, err := s.images.ListByProperty(ctx, propertyID)
	if err != nil {
		s.logger.Error("rollback: failed to list images", "property_id", propertyID, "error", err)
	}
	for _, img := range images {
		if err := s.blobs.Delete(ctx, img.ImageURL); err != nil {
			s.logger.Error("rollback: failed to delete image file", "url", img.ImageURL, "error", err)
		}
	}
	if orphanURL != "" {
		if err := s.blobs.Delete(ctx, orphanURL); err != nil {
			s.logger.Error("rollback: failed to delete orphan image file", "url", orphanURL, "error", err)
		}
	}
	if err := s.images.DeleteByProperty(ctx, propertyID); err != nil {
		s.logger.Error("rollback: failed to delete image records", "property_id", propertyID, "error", err)
	}
	if err := s.properties.Delete(ctx, propertyID); err != nil {
		s.logger.Error("rollback: failed to delete property record", "property_id", propertyID, "error", err)
	}
}

// Update replaces the property's mutable fields and, when new files are
// supplied, its primary image and/or its entire gallery.
func (s *PropertyService) Update(ctx context.Context, id int64, fields domain.PropertyFields, primary *ImageFile, gallery []*ImageFile) (*domain.Property, error) {
	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if existing == nil {
		return nil, ErrPropertyNotFound
	}

	if err := s.properties.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	if primary != nil {
		if err := s.replacePrimaryImage(ctx, id, primary); err != nil {
			return nil, err
		}
	}

	if len(gallery) > 0 {
		if err := s.replaceGalleryImages(ctx, id, gallery); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// replacePrimaryImage stores the new file before touching the old primary, so
// a failed write leaves the existing image fully intact.
func (s *PropertyService) replacePrimaryImage(ctx context.Context, propertyID int64, file *ImageFile) error {
	newURL, err := s.blobs.Save(ctx, file.MimeType, bytes.NewReader(file.Data))
	if err != nil {
		return fmt.Errorf("failed to save primary image: %w", err)
	}

	old, err := s.images.GetPrimary(ctx, propertyID)
	if err != nil {
		s.discardBlob(ctx, newURL)
		return fmt.Errorf("failed to look up primary image: %w", err)
	}
	if old != nil {
		if err := s.images.Delete(ctx, old.ID); err != nil {
			s.discardBlob(ctx, newURL)
			return fmt.Errorf("failed to delete old primary image record: %w", err)
		}
		if err := s.blobs.Delete(ctx, old.ImageURL); err != nil {
			s.logger.Error("failed to delete replaced primary image file", "url", old.ImageURL, "error", err)
		}
	}

	if _, err := s.images.Create(ctx, propertyID, newURL, true); err != nil {
		// The old primary is already gone at this point; discard the new blob
		// rather than leave an orphan. The property ends up without a primary
		// image.
		s.discardBlob(ctx, newURL)
		return fmt.Errorf("failed to create primary image record: %w", err)
	}

	return nil
}

// replaceGalleryImages drops the entire existing gallery, then stores each new
// file independently with the same skip-on-failure behavior as Create.
func (s *PropertyService) replaceGalleryImages(ctx context.Context, propertyID int64, files []*ImageFile) error {
	old, err := s.images.ListGallery(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to list gallery images: %w", err)
	}
	for _, img := range old {
		if err := s.blobs.Delete(ctx, img.ImageURL); err != nil {
			s.logger.Error("failed to delete old gallery image file", "url", img.ImageURL, "error", err)
		}
	}
	if err := s.images.DeleteGalleryByProperty(ctx, propertyID); err != nil {
		return fmt.Errorf("failed to delete gallery image records: %w", err)
	}

	for i, f := range files {
		if err := s.addGalleryImage(ctx, propertyID, f); err != nil {
			s.logger.Error("skipping failed gallery image", "property_id", propertyID, "index", i, "error", err)
		}
	}

	return nil
}

func (s *PropertyService) addGalleryImage(ctx context.Context, propertyID int64, file *ImageFile) error {
	url, err := s.blobs.Save(ctx, file.MimeType, bytes.NewReader(file.Data))
	if err != nil {
		return fmt.Errorf("failed to save gallery image: %w", err)
	}
	if _, err := s.images.Create(ctx, propertyID, url, false); err != nil {
		s.discardBlob(ctx, url)
		return fmt.Errorf("failed to create gallery image record: %w", err)
	}
	return nil
}

func (s *PropertyService) discardBlob(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		s.logger.Error("failed to discard image file", "url", url, "error", err)
	}
}

// Delete removes the property and everything it owns. Image files and records
// go first so that a crash mid-way leaves an image-less property rather than
// image records pointing at a vanished property.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return ErrPropertyNotFound
	}

	images, err := s.images.ListByProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		if err := s.blobs.Delete(ctx, img.ImageURL); err != nil {
			s.logger.Error("failed to delete image file", "url", img.ImageURL, "error", err)
		}
	}
	if err := s.images.DeleteByProperty(ctx, id); err != nil {
		return fmt.Errorf("failed to delete image records: %w", err)
	}

	if err := s.properties.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	s.logger.Info("property deleted", "property_id", id, "images_removed", len(images))
	return nil
}

// DeleteImage removes a single image and its stored file. Sibling images and
// the owning property are untouched; if the image was primary no replacement
// is elected.
func (s *PropertyService) DeleteImage(ctx context.Context, imageID int64) error {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("failed to get image: %w", err)
	}
	if img == nil {
		return ErrImageNotFound
	}

	// Blob delete is idempotent: a file already missing from storage must not
	// block record removal.
	if err := s.blobs.Delete(ctx, img.ImageURL); err != nil {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	if err := s.images.Delete(ctx, img.ID); err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	return nil
}

// Get returns the property with its images attached, primary first.
func (s *PropertyService) Get(ctx context.Context, id int64) (*domain.Property, error) {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}

	images, err := s.images.ListByProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	property.Images = images

	return property, nil
}

// List returns properties (optionally one listing type) with images attached.
func (s *PropertyService) List(ctx context.Context, listingType string) ([]*domain.Property, error) {
	properties, err := s.properties.List(ctx, listingType)
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		images, err := s.images.ListByProperty(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list images for property %d: %w", p.ID, err)
		}
		p.Images = images
	}
	return properties, nil
}

// FilterResult is one page of filtered properties plus pagination totals.
type FilterResult struct {
	Properties []*domain.Property
	Total      int
	Page       int
	PerPage    int
	LastPage   int
}

func (s *PropertyService) Filter(ctx context.Context, f domain.PropertyFilter) (*FilterResult, error) {
	f = f.Normalized()

	total, err := s.properties.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	properties, err := s.properties.Filter(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		images, err := s.images.ListByProperty(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list images for property %d: %w", p.ID, err)
		}
		p.Images = images
	}

	lastPage := (total + f.PerPage - 1) / f.PerPage
	if lastPage == 0 {
		lastPage = 1
	}

	return &FilterResult{
		Properties: properties,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		LastPage:   lastPage,
	}, nil
}
