package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Munene001/bigosbackend/internal/domain"
)

const propertyColumns = `id, title, location, location_url, unit_type, furnished, price_ksh,
	bedroom_count, bathroom_count, garage_count, description, features, amenities,
	listing_type, construction_status, created_at`

type PropertyStore struct {
	db *sql.DB
}

func NewPropertyStore(db *sql.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) Create(ctx context.Context, f domain.PropertyFields) (*domain.Property, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (title, location, location_url, unit_type, furnished, price_ksh,
			bedroom_count, bathroom_count, garage_count, description, features, amenities,
			listing_type, construction_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.Title, f.Location, f.LocationURL, f.UnitType, f.Furnished, f.PriceKsh,
		f.BedroomCount, f.BathroomCount, f.GarageCount, f.Description, f.Features, f.Amenities,
		f.ListingType, f.ConstructionStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PropertyStore) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	p := &domain.Property{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE id = ?
	`, id).Scan(scanTargets(p)...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return p, nil
}

// List returns properties newest first, optionally restricted to one listing
// type.
func (s *PropertyStore) List(ctx context.Context, listingType string) ([]*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties`
	var args []any
	if listingType != "" {
		query += ` WHERE listing_type = ?`
		args = append(args, listingType)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return collectProperties(rows)
}

func (s *PropertyStore) Update(ctx context.Context, id int64, f domain.PropertyFields) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE properties SET title = ?, location = ?, location_url = ?, unit_type = ?,
			furnished = ?, price_ksh = ?, bedroom_count = ?, bathroom_count = ?,
			garage_count = ?, description = ?, features = ?, amenities = ?,
			listing_type = ?, construction_status = ?
		WHERE id = ?
	`, f.Title, f.Location, f.LocationURL, f.UnitType, f.Furnished, f.PriceKsh,
		f.BedroomCount, f.BathroomCount, f.GarageCount, f.Description, f.Features, f.Amenities,
		f.ListingType, f.ConstructionStatus, id)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("property not found")
	}

	return nil
}

func (s *PropertyStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM properties WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("property not found")
	}

	return nil
}

// Filter returns the page of properties matching f, newest first. Callers
// should pass a normalized filter; Count with the same filter gives the total
// before slicing.
func (s *PropertyStore) Filter(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, error) {
	where, args := filterWhere(f)
	query := `SELECT ` + propertyColumns + ` FROM properties` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter properties: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return collectProperties(rows)
}

func (s *PropertyStore) Count(ctx context.Context, f domain.PropertyFilter) (int, error) {
	where, args := filterWhere(f)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

func filterWhere(f domain.PropertyFilter) (string, []any) {
	conds := []string{"price_ksh >= ?", "price_ksh <= ?"}
	args := []any{f.MinPrice, f.MaxPrice}

	if f.Bedrooms != nil {
		conds = append(conds, "bedroom_count = ?")
		args = append(args, *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		conds = append(conds, "bathroom_count = ?")
		args = append(args, *f.Bathrooms)
	}
	if f.Location != "" {
		conds = append(conds, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.ListingType != "" {
		conds = append(conds, "listing_type = ?")
		args = append(args, f.ListingType)
	}
	if domain.ValidFurnished(f.Furnished) {
		conds = append(conds, "furnished = ?")
		args = append(args, f.Furnished)
	}
	if domain.ValidConstructionStatus(f.ConstructionStatus) {
		conds = append(conds, "construction_status = ?")
		args = append(args, f.ConstructionStatus)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTargets(p *domain.Property) []any {
	return []any{
		&p.ID, &p.Title, &p.Location, &p.LocationURL, &p.UnitType, &p.Furnished, &p.PriceKsh,
		&p.BedroomCount, &p.BathroomCount, &p.GarageCount, &p.Description, &p.Features, &p.Amenities,
		&p.ListingType, &p.ConstructionStatus, &p.CreatedAt,
	}
}

func collectProperties(rows *sql.Rows) ([]*domain.Property, error) {
	var properties []*domain.Property
	for rows.Next() {
		p := &domain.Property{}
		if err := rows.Scan(scanTargets(p)...); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return properties, nil
}
