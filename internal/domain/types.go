package domain

import "time"

// Furnished values accepted for a property.
const (
	FurnishedYes = "Yes"
	FurnishedNo  = "No"
)

// Listing types.
const (
	ListingForSale = "for-sale"
	ListingForRent = "for-rent"
)

// Construction statuses.
const (
	ConstructionComplete   = "complete"
	ConstructionUnfinished = "unfinished"
)

type Property struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Location           string    `json:"location"`
	LocationURL        string    `json:"location_url,omitempty"`
	UnitType           string    `json:"unit_type"`
	Furnished          string    `json:"furnished"`
	PriceKsh           float64   `json:"price_ksh"`
	BedroomCount       int       `json:"bedroom_count"`
	BathroomCount      int       `json:"bathroom_count"`
	GarageCount        int       `json:"garage_count"`
	Description        string    `json:"description"`
	Features           string    `json:"features"`
	Amenities          string    `json:"amenities"`
	ListingType        string    `json:"listing_type,omitempty"`
	ConstructionStatus string    `json:"construction_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`

	// Images is populated by the service when the property is read back.
	Images []*Image `json:"images,omitempty"`
}

type Image struct {
	ID         int64     `json:"image_id"`
	PropertyID int64     `json:"property_id"`
	ImageURL   string    `json:"image_url"`
	IsPrimary  bool      `json:"is_primary"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidFurnished reports whether v is an accepted furnished value.
func ValidFurnished(v string) bool {
	return v == FurnishedYes || v == FurnishedNo
}

// ValidListingType reports whether v is an accepted listing type.
func ValidListingType(v string) bool {
	return v == ListingForSale || v == ListingForRent
}

// ValidConstructionStatus reports whether v is an accepted construction status.
func ValidConstructionStatus(v string) bool {
	return v == ConstructionComplete || v == ConstructionUnfinished
}
