package company

import "time"

// Company statuses. New registrations wait for admin approval before
// appearing in search or the feed.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusSuspended = "suspended"
)

// Address is stored as a JSON blob on the company row. Lat/Lng feed the
// H3 index and distance sorting.
type Address struct {
	Street  string  `json:"street,omitempty"`
	Number  string  `json:"number,omitempty"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`
	ZipCode string  `json:"zip_code,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

type Company struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profile_id,omitempty"`
	Slug            string    `json:"slug"`
	CompanyName     string    `json:"company_name"`
	LegalName       string    `json:"legal_name,omitempty"`
	CNPJ            string    `json:"cnpj,omitempty"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	LogoURL         string    `json:"logo_url,omitempty"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	Address         Address   `json:"address"`
	H3Index         *string   `json:"h3_index,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email"`
	Website         string    `json:"website,omitempty"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	Status          string    `json:"status"`
	Verified        bool      `json:"verified"`
	CurrentPlanTier string    `json:"current_plan_tier"`
	ChargesEnabled  bool      `json:"charges_enabled"`
	CreatedAt       time.Time `json:"created_at"`

	// Populated by search when caller coordinates are supplied.
	DistanceKm *float64 `json:"distance_km,omitempty"`
	// Cheapest active service price, in cents. Drives price buckets.
	MinPrice int64 `json:"min_price"`
}

type PortfolioItem struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Type      string    `json:"type"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type TeamMember struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
