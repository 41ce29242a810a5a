package web

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Munene001/bigosbackend/internal/domain"
	"github.com/Munene001/bigosbackend/internal/service"
)

const (
	maxImageSize  = 250 * 1024 // matches the site's 250KB upload cap
	maxFormMemory = 32 << 20

	maxTitleLen    = 255
	maxLocationLen = 255
	maxURLLen      = 500
	maxUnitTypeLen = 50
	maxTextLen     = 1200
)

// allowedImageTypes is the set of MIME types accepted for uploaded images.
// net/http.DetectContentType handles JPEG and PNG via magic-byte sniffing.
// WebP is detected separately because the WHATWG sniff spec (and therefore
// the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// parsePropertyForm validates the multipart text fields and returns them
// together with a per-field error map. listing_type is required on update but
// optional on create.
func parsePropertyForm(r *http.Request, requireListingType bool) (domain.PropertyFields, map[string]string) {
	errs := make(map[string]string)
	var f domain.PropertyFields

	f.Title = requiredString(r, "title", maxTitleLen, errs)
	f.Location = requiredString(r, "location", maxLocationLen, errs)
	f.UnitType = requiredString(r, "unit_type", maxUnitTypeLen, errs)
	f.Description = requiredString(r, "description", maxTextLen, errs)
	f.Features = requiredString(r, "features", maxTextLen, errs)
	f.Amenities = requiredString(r, "amenities", maxTextLen, errs)

	f.LocationURL = strings.TrimSpace(r.FormValue("location_url"))
	if len(f.LocationURL) > maxURLLen {
		errs["location_url"] = fmt.Sprintf("must be at most %d characters", maxURLLen)
	}

	f.Furnished = strings.TrimSpace(r.FormValue("furnished"))
	if f.Furnished == "" {
		errs["furnished"] = "is required"
	} else if !domain.ValidFurnished(f.Furnished) {
		errs["furnished"] = "must be Yes or No"
	}

	if raw := strings.TrimSpace(r.FormValue("price_ksh")); raw == "" {
		errs["price_ksh"] = "is required"
	} else if price, err := strconv.ParseFloat(raw, 64); err != nil {
		errs["price_ksh"] = "must be a number"
	} else if price < 0 {
		errs["price_ksh"] = "must not be negative"
	} else {
		f.PriceKsh = price
	}

	f.BedroomCount = requiredCount(r, "bedroom_count", errs)
	f.BathroomCount = requiredCount(r, "bathroom_count", errs)
	f.GarageCount = requiredCount(r, "garage_count", errs)

	f.ListingType = strings.TrimSpace(r.FormValue("listing_type"))
	if f.ListingType == "" {
		if requireListingType {
			errs["listing_type"] = "is required"
		}
	} else if !domain.ValidListingType(f.ListingType) {
		errs["listing_type"] = "must be for-sale or for-rent"
	}

	f.ConstructionStatus = strings.TrimSpace(r.FormValue("construction_status"))
	if f.ConstructionStatus != "" && !domain.ValidConstructionStatus(f.ConstructionStatus) {
		errs["construction_status"] = "must be complete or unfinished"
	}

	return f, errs
}

func requiredString(r *http.Request, field string, maxLen int, errs map[string]string) string {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		errs[field] = "is required"
	} else if len(v) > maxLen {
		errs[field] = fmt.Sprintf("must be at most %d characters", maxLen)
	}
	return v
}

func requiredCount(r *http.Request, field string, errs map[string]string) int {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		errs[field] = "is required"
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs[field] = "must be an integer"
		return 0
	}
	if n < 0 {
		errs[field] = "must not be negative"
		return 0
	}
	return n
}

// readImageFile loads one uploaded file into memory, enforcing the size cap
// and the accepted image formats.
func readImageFile(fh *multipart.FileHeader) (*service.ImageFile, error) {
	if fh.Size > maxImageSize {
		return nil, fmt.Errorf("must be at most %dKB", maxImageSize/1024)
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("could not be read")
	}
	defer closeWithLog(file, "upload file")

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("could not be read")
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, fmt.Errorf("must be a jpeg, png or webp image")
	}

	return &service.ImageFile{Data: data, MimeType: mimeType}, nil
}

// galleryFileHeaders returns the uploaded gallery files. Both the bracketed
// and the bare field name are accepted.
func galleryFileHeaders(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if headers := r.MultipartForm.File["gallery_images[]"]; len(headers) > 0 {
		return headers
	}
	return r.MultipartForm.File["gallery_images"]
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string) {
	if err := c.Close(); err != nil {
		slog.Error("failed to close resource", "label", label, "error", err)
	}
}
