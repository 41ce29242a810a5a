package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Munene001/bigosbackend/internal/domain"
	"github.com/Munene001/bigosbackend/internal/service"
)

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "failed to parse multipart form")
		return
	}

	fields, fieldErrs := parsePropertyForm(r, false)

	var primary *service.ImageFile
	if fhs := r.MultipartForm.File["primary_image"]; len(fhs) == 0 {
		fieldErrs["primary_image"] = "is required"
	} else if img, err := readImageFile(fhs[0]); err != nil {
		fieldErrs["primary_image"] = err.Error()
	} else {
		primary = img
	}

	gallery := collectGallery(r, fieldErrs)

	if len(fieldErrs) > 0 {
		respondValidation(w, fieldErrs)
		return
	}

	property, err := s.service.Create(r.Context(), fields, primary, gallery)
	if err != nil {
		if errors.Is(err, service.ErrPrimaryImageRequired) {
			respondValidation(w, map[string]string{"primary_image": "is required"})
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create property")
		s.logger.Error("create property failed", "error", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Property created successfully",
		"property": property,
	})
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	listingType := r.URL.Query().Get("listing_type")

	properties, err := s.service.List(r.Context(), listingType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list properties")
		s.logger.Error("list properties failed", "error", err)
		return
	}
	if properties == nil {
		properties = []*domain.Property{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"properties":   properties,
		"count":        len(properties),
		"listing_type": listingType,
	})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid property id")
		return
	}

	property, err := s.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get property")
		s.logger.Error("get property failed", "property_id", id, "error", err)
		return
	}

	respondJSON(w, http.StatusOK, property)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid property id")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "failed to parse multipart form")
		return
	}

	fields, fieldErrs := parsePropertyForm(r, true)

	var primary *service.ImageFile
	if fhs := r.MultipartForm.File["primary_image"]; len(fhs) > 0 {
		if img, err := readImageFile(fhs[0]); err != nil {
			fieldErrs["primary_image"] = err.Error()
		} else {
			primary = img
		}
	}

	gallery := collectGallery(r, fieldErrs)

	if len(fieldErrs) > 0 {
		respondValidation(w, fieldErrs)
		return
	}

	property, err := s.service.Update(r.Context(), id, fields, primary, gallery)
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update property")
		s.logger.Error("update property failed", "property_id", id, "error", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Property updated successfully",
		"property": property,
	})
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid property id")
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete property")
		s.logger.Error("delete property failed", "property_id", id, "error", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Property deleted successfully",
	})
}

func (s *Server) handleFilterProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f domain.PropertyFilter
	applied := make(map[string]string)

	if v := q.Get("bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Bedrooms = &n
			applied["bedrooms"] = v
		}
	}
	if v := q.Get("bathrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Bathrooms = &n
			applied["bathrooms"] = v
		}
	}
	if v := q.Get("location"); v != "" {
		f.Location = v
		applied["location"] = v
	}
	if v := q.Get("min_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p >= 0 {
			f.MinPrice = p
			applied["min_price"] = v
		}
	}
	if v := q.Get("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			f.MaxPrice = p
			applied["max_price"] = v
		}
	}
	if v := q.Get("furnished"); domain.ValidFurnished(v) {
		f.Furnished = v
		applied["furnished"] = v
	}
	if v := q.Get("construction_status"); domain.ValidConstructionStatus(v) {
		f.ConstructionStatus = v
		applied["construction_status"] = v
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Page = n
		}
	}
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.PerPage = n
		}
	}

	result, err := s.service.Filter(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to filter properties")
		s.logger.Error("filter properties failed", "error", err)
		return
	}

	properties := result.Properties
	if properties == nil {
		properties = []*domain.Property{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"properties":      properties,
		"total":           result.Total,
		"page":            result.Page,
		"per_page":        result.PerPage,
		"last_page":       result.LastPage,
		"applied_filters": applied,
	})
}

// collectGallery validates each uploaded gallery file, recording per-file
// validation errors under gallery_images.N keys.
func collectGallery(r *http.Request, fieldErrs map[string]string) []*service.ImageFile {
	headers := galleryFileHeaders(r)
	gallery := make([]*service.ImageFile, 0, len(headers))
	for i, fh := range headers {
		img, err := readImageFile(fh)
		if err != nil {
			fieldErrs["gallery_images."+strconv.Itoa(i)] = err.Error()
			continue
		}
		gallery = append(gallery, img)
	}
	return gallery
}

// parseID extracts a path variable and returns it as int64.
func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
