package catalog

import "time"

// Delivery units accepted on packages.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
)

// Service types.
const (
	TypeRemote     = "remote"
	TypePresential = "presential"
	TypeHybrid     = "hybrid"
)

// Package tiers.
const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Package is one priced tier of a service. Price is in cents;
// Revisions of -1 means unlimited.
type Package struct {
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	DeliveryTime int      `json:"delivery_time"`
	DeliveryUnit string   `json:"delivery_unit"`
	Revisions    int      `json:"revisions"`
	Features     []string `json:"features,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// Packages holds the up-to-three tiers of a service. Single-package
// services persist nil standard and premium tiers.
type Packages struct {
	Basic    *Package `json:"basic,omitempty"`
	Standard *Package `json:"standard,omitempty"`
	Premium  *Package `json:"premium,omitempty"`
}

// Service is a catalog row as persisted and served.
type Service struct {
	ID                     string            `json:"id"`
	CompanyID              string            `json:"company_id"`
	Title                  string            `json:"title"`
	Description            string            `json:"description,omitempty"`
	StartingPrice          int64             `json:"starting_price"`
	Duration               string            `json:"duration,omitempty"`
	DurationMinutes        int               `json:"duration_minutes"`
	Packages               *Packages         `json:"packages,omitempty"`
	Gallery                []string          `json:"gallery"`
	Attributes             map[string]string `json:"attributes,omitempty"`
	Tags                   []string          `json:"tags,omitempty"`
	ServiceType            string            `json:"service_type"`
	CategoryTag            string            `json:"category_tag"`
	Subcategory            string            `json:"subcategory"`
	H3Index                *string           `json:"h3_index,omitempty"`
	IsSinglePackage        bool              `json:"is_single_package"`
	RequiresQuote          bool              `json:"requires_quote"`
	UseCompanyAvailability bool              `json:"use_company_availability"`
	RegistrationNumber     string            `json:"registration_number,omitempty"`
	RegistrationState      string            `json:"registration_state,omitempty"`
	RegistrationImage      string            `json:"registration_image,omitempty"`
	CertificationID        string            `json:"certification_id,omitempty"`
	IsActive               bool              `json:"is_active"`
	CreatedAt              time.Time         `json:"created_at"`

	// Joined company data, present on feed/search responses.
	CompanyName   string  `json:"company_name,omitempty"`
	CompanyLogo   string  `json:"company_logo,omitempty"`
	CompanyRating float64 `json:"company_rating,omitempty"`
	CompanySlug   string  `json:"company_slug,omitempty"`
}
