package domain

// Pagination defaults for filtered listing queries.
const (
	DefaultPage    = 1
	DefaultPerPage = 10

	// MaxPriceSentinel stands in for "no upper bound" in price range filters.
	MaxPriceSentinel = 1e15
)

// PropertyFields is the mutable field set of a property. Create sets all of
// them; Update replaces all of them. ID and CreatedAt are never touched.
type PropertyFields struct {
	Title              string
	Location           string
	LocationURL        string
	UnitType           string
	Furnished          string
	PriceKsh           float64
	BedroomCount       int
	BathroomCount      int
	GarageCount        int
	Description        string
	Features           string
	Amenities          string
	ListingType        string
	ConstructionStatus string
}

// PropertyFilter is a conjunction of optional listing criteria. Zero-valued
// criteria are not applied; Furnished and ConstructionStatus are also ignored
// when set to anything outside their accepted values.
type PropertyFilter struct {
	Bedrooms           *int
	Bathrooms          *int
	Location           string
	MinPrice           float64
	MaxPrice           float64
	ListingType        string
	Furnished          string
	ConstructionStatus string
	Page               int
	PerPage            int
}

// Normalized returns a copy with pagination and price bounds defaulted.
func (f PropertyFilter) Normalized() PropertyFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice <= 0 {
		f.MaxPrice = MaxPriceSentinel
	}
	return f
}
