package web_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Munene001/bigosbackend/internal/blobstore/local"
	"github.com/Munene001/bigosbackend/internal/db"
	"github.com/Munene001/bigosbackend/internal/service"
	"github.com/Munene001/bigosbackend/internal/store"
	"github.com/Munene001/bigosbackend/internal/web"
)

const testBaseURL = "https://kevsbuilders.co.ke/bigos"

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

type imageJSON struct {
	ID         int64  `json:"image_id"`
	PropertyID int64  `json:"property_id"`
	ImageURL   string `json:"image_url"`
	IsPrimary  bool   `json:"is_primary"`
}

type propertyJSON struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	PriceKsh    float64      `json:"price_ksh"`
	ListingType string       `json:"listing_type"`
	Images      []*imageJSON `json:"images"`
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and a
// blob store rooted at a temp directory. Returns the server, the blob
// directory, and a cleanup function.
func newTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	dir := t.TempDir()
	blobs, err := local.NewLocalBlobStore(dir, testBaseURL)
	if err != nil {
		t.Fatalf("NewLocalBlobStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewPropertyService(
		store.NewPropertyStore(database),
		store.NewImageStore(database),
		blobs,
		logger,
	)
	srv := httptest.NewServer(web.NewServer(svc, blobs, logger))
	return srv, dir, func() {
		srv.Close()
		_ = database.Close()
	}
}

// validFields returns the text fields for a valid property form.
func validFields(title string) map[string]string {
	return map[string]string{
		"title":          title,
		"location":       "Westlands, Nairobi",
		"unit_type":      "apartment",
		"furnished":      "Yes",
		"price_ksh":      "150000",
		"bedroom_count":  "3",
		"bathroom_count": "2",
		"garage_count":   "1",
		"description":    "Spacious apartment",
		"features":       "Balcony",
		"amenities":      "Gym, pool",
		"listing_type":   "for-rent",
	}
}

// buildPropertyBody creates a multipart/form-data body from text fields plus
// an optional primary image and gallery images.
func buildPropertyBody(t *testing.T, fields map[string]string, primary []byte, gallery ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if primary != nil {
		fw, err := w.CreateFormFile("primary_image", "primary.jpg")
		if err != nil {
			t.Fatalf("create primary file: %v", err)
		}
		if _, err := fw.Write(primary); err != nil {
			t.Fatalf("write primary data: %v", err)
		}
	}
	for i, g := range gallery {
		fw, err := w.CreateFormFile("gallery_images[]", fmt.Sprintf("gallery%d.jpg", i))
		if err != nil {
			t.Fatalf("create gallery file: %v", err)
		}
		if _, err := fw.Write(g); err != nil {
			t.Fatalf("write gallery data: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

// createProperty posts a valid property with a primary image and returns the
// created property from the response.
func createProperty(t *testing.T, srv *httptest.Server, fields map[string]string) propertyJSON {
	t.Helper()
	body, contentType := buildPropertyBody(t, fields, minimalJPEG)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /properties status %d: %s", resp.StatusCode, b)
	}
	var out struct {
		Property propertyJSON `json:"property"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out.Property
}

// countFiles returns the number of regular files in dir.
func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

func TestIntegration_CreateProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, dir, cleanup := newTestServer(t)
	defer cleanup()

	body, contentType := buildPropertyBody(t, validFields("Garden View"), minimalJPEG, minimalJPEG, minimalJPEG)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Message  string       `json:"message"`
		Property propertyJSON `json:"property"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Message != "Property created successfully" {
		t.Errorf("message = %q", out.Message)
	}
	if out.Property.Title != "Garden View" {
		t.Errorf("title = %q", out.Property.Title)
	}
	if len(out.Property.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(out.Property.Images))
	}
	if !out.Property.Images[0].IsPrimary {
		t.Error("first image is not the primary")
	}
	for _, img := range out.Property.Images {
		if !strings.HasPrefix(img.ImageURL, testBaseURL+"/") {
			t.Errorf("image url %q missing base url prefix", img.ImageURL)
		}
	}
	if got := countFiles(t, dir); got != 3 {
		t.Errorf("expected 3 files on disk, got %d", got)
	}
}

func TestIntegration_CreateProperty_ValidationErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, dir, cleanup := newTestServer(t)
	defer cleanup()

	fields := validFields("Broken")
	delete(fields, "title")
	fields["furnished"] = "Maybe"

	// No primary image either.
	body, contentType := buildPropertyBody(t, fields, nil)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != "validation_failed" {
		t.Errorf("error = %q", out.Error)
	}
	for _, field := range []string{"title", "furnished", "primary_image"} {
		if _, ok := out.Errors[field]; !ok {
			t.Errorf("missing validation error for %q in %v", field, out.Errors)
		}
	}
	if got := countFiles(t, dir); got != 0 {
		t.Errorf("expected no files on disk after rejected create, got %d", got)
	}
}

func TestIntegration_CreateProperty_OversizedImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	oversized := make([]byte, 251*1024)
	copy(oversized, minimalJPEG)

	body, contentType := buildPropertyBody(t, validFields("Too Big"), oversized)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := out.Errors["primary_image"]; !ok {
		t.Errorf("missing validation error for primary_image in %v", out.Errors)
	}
}

func TestIntegration_GetProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	created := createProperty(t, srv, validFields("Hilltop Villa"))

	resp, err := http.Get(fmt.Sprintf("%s/properties/%d", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("GET /properties/%d: %v", created.ID, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var got propertyJSON
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Title != "Hilltop Villa" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Images) != 1 {
		t.Errorf("expected 1 image, got %d", len(got.Images))
	}
}

func TestIntegration_GetProperty_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/properties/999")
	if err != nil {
		t.Fatalf("GET /properties/999: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_ListProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rent := validFields("Rental Unit")
	createProperty(t, srv, rent)

	sale := validFields("Sale Unit")
	sale["listing_type"] = "for-sale"
	createProperty(t, srv, sale)

	resp, err := http.Get(srv.URL + "/properties?listing_type=for-sale")
	if err != nil {
		t.Fatalf("GET /properties: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Properties  []propertyJSON `json:"properties"`
		Count       int            `json:"count"`
		ListingType string         `json:"listing_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Count != 1 || len(out.Properties) != 1 {
		t.Fatalf("expected 1 property, got count=%d len=%d", out.Count, len(out.Properties))
	}
	if out.Properties[0].Title != "Sale Unit" {
		t.Errorf("title = %q", out.Properties[0].Title)
	}
	if out.ListingType != "for-sale" {
		t.Errorf("listing_type = %q", out.ListingType)
	}
}

func TestIntegration_FilterProperties_Pagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	for i := 1; i <= 12; i++ {
		f := validFields(fmt.Sprintf("Unit %02d", i))
		f["price_ksh"] = fmt.Sprintf("%d", 100000+i*1000)
		createProperty(t, srv, f)
	}

	resp, err := http.Get(srv.URL + "/properties/filter?per_page=5&page=2")
	if err != nil {
		t.Fatalf("GET /properties/filter: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Properties []propertyJSON `json:"properties"`
		Total      int            `json:"total"`
		Page       int            `json:"page"`
		PerPage    int            `json:"per_page"`
		LastPage   int            `json:"last_page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Total != 12 {
		t.Errorf("total = %d, want 12", out.Total)
	}
	if out.Page != 2 || out.PerPage != 5 {
		t.Errorf("page = %d per_page = %d", out.Page, out.PerPage)
	}
	if out.LastPage != 3 {
		t.Errorf("last_page = %d, want 3", out.LastPage)
	}
	if len(out.Properties) != 5 {
		t.Errorf("expected 5 properties on page 2, got %d", len(out.Properties))
	}
}

func TestIntegration_FilterProperties_PriceRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	for _, price := range []string{"80000", "100000", "150000", "200000", "250000"} {
		f := validFields("Priced at " + price)
		f["price_ksh"] = price
		createProperty(t, srv, f)
	}

	resp, err := http.Get(srv.URL + "/properties/filter?min_price=100000&max_price=200000")
	if err != nil {
		t.Fatalf("GET /properties/filter: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out struct {
		Properties []propertyJSON    `json:"properties"`
		Total      int               `json:"total"`
		Applied    map[string]string `json:"applied_filters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Bounds are inclusive.
	if out.Total != 3 {
		t.Errorf("total = %d, want 3", out.Total)
	}
	if out.Applied["min_price"] != "100000" || out.Applied["max_price"] != "200000" {
		t.Errorf("applied_filters = %v", out.Applied)
	}
}

func TestIntegration_UpdateProperty_ReplacesGallery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, dir, cleanup := newTestServer(t)
	defer cleanup()

	body, contentType := buildPropertyBody(t, validFields("Before"), minimalJPEG, minimalJPEG, minimalJPEG)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	var createOut struct {
		Property propertyJSON `json:"property"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&createOut); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	_ = resp.Body.Close()
	if got := countFiles(t, dir); got != 3 {
		t.Fatalf("expected 3 files after create, got %d", got)
	}

	fields := validFields("After")
	fields["price_ksh"] = "180000"
	body, contentType = buildPropertyBody(t, fields, nil, minimalJPEG)
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/properties/%d", srv.URL, createOut.Property.ID), body)
	if err != nil {
		t.Fatalf("new PUT request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /properties/%d: %v", createOut.Property.ID, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, b)
	}

	var out struct {
		Message  string       `json:"message"`
		Property propertyJSON `json:"property"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Message != "Property updated successfully" {
		t.Errorf("message = %q", out.Message)
	}
	if out.Property.Title != "After" {
		t.Errorf("title = %q", out.Property.Title)
	}
	if out.Property.PriceKsh != 180000 {
		t.Errorf("price_ksh = %v", out.Property.PriceKsh)
	}
	// Primary kept, old gallery replaced by one new image.
	if len(out.Property.Images) != 2 {
		t.Fatalf("expected 2 images after update, got %d", len(out.Property.Images))
	}
	if !out.Property.Images[0].IsPrimary {
		t.Error("first image is not the primary")
	}
	if got := countFiles(t, dir); got != 2 {
		t.Errorf("expected 2 files on disk after gallery replacement, got %d", got)
	}
}

func TestIntegration_UpdateProperty_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	body, contentType := buildPropertyBody(t, validFields("Ghost"), nil)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/properties/999", body)
	if err != nil {
		t.Fatalf("new PUT request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /properties/999: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, b)
	}
}

func TestIntegration_DeleteProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, dir, cleanup := newTestServer(t)
	defer cleanup()

	created := createProperty(t, srv, validFields("Doomed"))
	if got := countFiles(t, dir); got != 1 {
		t.Fatalf("expected 1 file after create, got %d", got)
	}

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/properties/%d", srv.URL, created.ID), nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /properties/%d: %v", created.ID, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if got := countFiles(t, dir); got != 0 {
		t.Errorf("expected no files on disk after delete, got %d", got)
	}

	getResp, err := http.Get(fmt.Sprintf("%s/properties/%d", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	t.Cleanup(func() { _ = getResp.Body.Close() })
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", getResp.StatusCode)
	}
}

func TestIntegration_DeleteImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, dir, cleanup := newTestServer(t)
	defer cleanup()

	body, contentType := buildPropertyBody(t, validFields("Gallery Home"), minimalJPEG, minimalJPEG)
	resp, err := http.Post(srv.URL+"/properties", contentType, body)
	if err != nil {
		t.Fatalf("POST /properties: %v", err)
	}
	var createOut struct {
		Property propertyJSON `json:"property"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&createOut); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	_ = resp.Body.Close()

	var galleryID int64
	for _, img := range createOut.Property.Images {
		if !img.IsPrimary {
			galleryID = img.ID
		}
	}
	if galleryID == 0 {
		t.Fatal("no gallery image in create response")
	}

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/images/%d", srv.URL, galleryID), nil)
	if err != nil {
		t.Fatalf("new DELETE request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /images/%d: %v", galleryID, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := countFiles(t, dir); got != 1 {
		t.Errorf("expected 1 file on disk after image delete, got %d", got)
	}

	// Deleting again reports not found.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE /images/%d: %v", galleryID, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on repeated delete, got %d", resp.StatusCode)
	}
}

func TestIntegration_ServeImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	created := createProperty(t, srv, validFields("Pictured"))
	if len(created.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(created.Images))
	}

	url := created.Images[0].ImageURL
	filename := url[strings.LastIndex(url, "/")+1:]

	resp, err := http.Get(srv.URL + "/bigos/" + filename)
	if err != nil {
		t.Fatalf("GET /bigos/%s: %v", filename, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(data, minimalJPEG) {
		t.Errorf("served bytes differ from uploaded image (%d bytes)", len(data))
	}

	missing, err := http.Get(srv.URL + "/bigos/does-not-exist.jpg")
	if err != nil {
		t.Fatalf("GET missing image: %v", err)
	}
	t.Cleanup(func() { _ = missing.Body.Close() })
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing image, got %d", missing.StatusCode)
	}
}
