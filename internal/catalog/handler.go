package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
)

// Handler serves the service catalog: creation through the wizard contract,
// updates, listing and gallery uploads.
type Handler struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	store *storage.Store
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, store *storage.Store) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "catalog").Logger(), store: store}
}

// ListCategories returns the static taxonomy for pickers.
func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": Categories})
}

type SubmitServiceRequest struct {
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Category           string            `json:"category"`
	Subcategory        string            `json:"subcategory"`
	ServiceType        string            `json:"service_type"`
	Tags               []string          `json:"tags"`
	Packages           *Packages         `json:"packages"`
	Gallery            []string          `json:"gallery"`
	Attributes         map[string]string `json:"attributes"`
	IsSinglePackage    bool              `json:"is_single_package"`
	RequiresQuote      bool              `json:"requires_quote"`
	UseCompanyAvail    *bool             `json:"use_company_availability"`
	RegistrationNumber string            `json:"registration_number"`
	RegistrationState  string            `json:"registration_state"`
	RegistrationImage  string            `json:"registration_image"`
	CertificationID    string            `json:"certification_id"`
}

func (r *SubmitServiceRequest) wizardForm() *WizardForm {
	return &WizardForm{
		Title:              r.Title,
		Category:           r.Category,
		Subcategory:        r.Subcategory,
		ServiceType:        r.ServiceType,
		Description:        r.Description,
		Tags:               r.Tags,
		Packages:           r.Packages,
		Gallery:            r.Gallery,
		IsSinglePackage:    r.IsSinglePackage,
		RequiresQuote:      r.RequiresQuote,
		RegistrationNumber: r.RegistrationNumber,
		RegistrationState:  r.RegistrationState,
		RegistrationImage:  r.RegistrationImage,
		CertificationID:    r.CertificationID,
	}
}

// CreateService validates the full wizard contract server-side and inserts
// the service row with its derived columns.
func (h *Handler) CreateService(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req SubmitServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.ServiceType == "" {
		req.ServiceType = TypePresential
	}
	if req.ServiceType != TypeRemote && req.ServiceType != TypePresential && req.ServiceType != TypeHybrid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service_type"})
	}

	// Steps cannot be skipped: the whole wizard must validate clean.
	form := req.wizardForm()
	for step := StepOverview; step <= StepGallery; step++ {
		if errs := ValidateStep(step, form); !errs.Empty() {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": errs, "step": int(step)})
		}
	}

	ctx := c.Request().Context()

	var companyID string
	var companyH3 *string
	err := h.pool.QueryRow(ctx,
		`SELECT id, h3_index FROM companies WHERE profile_id = $1`, userID,
	).Scan(&companyID, &companyH3)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": "company profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch company"})
	}

	// Remote services carry no cell; presential/hybrid inherit the company's.
	var serviceH3 *string
	if req.ServiceType != TypeRemote {
		serviceH3 = companyH3
	}

	finalPackages := FinalizePackages(req.Packages, req.IsSinglePackage)
	startingPrice := StartingPrice(finalPackages)
	durationMinutes, durationLabel := DeriveDuration(finalPackages)

	packagesJSON, err := json.Marshal(finalPackages)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode packages"})
	}
	galleryJSON, _ := json.Marshal(req.Gallery)
	attributesJSON, _ := json.Marshal(req.Attributes)

	useAvail := true
	if req.UseCompanyAvail != nil {
		useAvail = *req.UseCompanyAvail
	}

	var serviceID string
	err = h.pool.QueryRow(ctx, `
		INSERT INTO services (
			company_id, title, description, starting_price, duration, duration_minutes,
			packages, gallery, attributes, tags, service_type, category_tag, subcategory,
			h3_index, is_single_package, requires_quote, use_company_availability,
			registration_number, registration_state, registration_image, certification_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id
	`, companyID, req.Title, req.Description, startingPrice, durationLabel, durationMinutes,
		packagesJSON, galleryJSON, attributesJSON, req.Tags, req.ServiceType, req.Category, req.Subcategory,
		serviceH3, req.IsSinglePackage, req.RequiresQuote, useAvail,
		req.RegistrationNumber, req.RegistrationState, req.RegistrationImage, req.CertificationID,
	).Scan(&serviceID)
	if err != nil {
		h.log.Error().Err(err).Str("company_id", companyID).Msg("service insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"service_id":     serviceID,
		"starting_price": startingPrice,
		"duration":       durationLabel,
	})
}

// UpdateService rewrites an owned service with the same validation and
// derivation rules as creation.
func (h *Handler) UpdateService(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var req SubmitServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	form := req.wizardForm()
	for step := StepOverview; step <= StepGallery; step++ {
		if errs := ValidateStep(step, form); !errs.Empty() {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": errs, "step": int(step)})
		}
	}

	finalPackages := FinalizePackages(req.Packages, req.IsSinglePackage)
	startingPrice := StartingPrice(finalPackages)
	durationMinutes, durationLabel := DeriveDuration(finalPackages)

	packagesJSON, _ := json.Marshal(finalPackages)
	galleryJSON, _ := json.Marshal(req.Gallery)
	attributesJSON, _ := json.Marshal(req.Attributes)

	res, err := h.pool.Exec(c.Request().Context(), `
		UPDATE services s SET
			title = $1, description = $2, starting_price = $3, duration = $4, duration_minutes = $5,
			packages = $6, gallery = $7, attributes = $8, tags = $9,
			is_single_package = $10, requires_quote = $11, updated_at = NOW()
		FROM companies co
		WHERE s.id = $12 AND s.company_id = co.id AND co.profile_id = $13
	`, req.Title, req.Description, startingPrice, durationLabel, durationMinutes,
		packagesJSON, galleryJSON, attributesJSON, req.Tags,
		req.IsSinglePackage, req.RequiresQuote, serviceID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "service updated"})
}

// GetService returns one service with its joined company card.
func (h *Handler) GetService(c echo.Context) error {
	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var (
		s              Service
		packagesJSON   []byte
		galleryJSON    []byte
		attributesJSON []byte
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT s.id, s.company_id, s.title, COALESCE(s.description, ''), s.starting_price,
		       COALESCE(s.duration, ''), s.duration_minutes, s.packages, s.gallery, s.attributes,
		       s.tags, s.service_type, s.category_tag, s.subcategory, s.h3_index,
		       s.is_single_package, s.requires_quote, s.use_company_availability, s.is_active, s.created_at,
		       co.company_name, COALESCE(co.logo_url, ''), co.rating, co.slug
		FROM services s
		JOIN companies co ON co.id = s.company_id
		WHERE s.id = $1
	`, serviceID).Scan(
		&s.ID, &s.CompanyID, &s.Title, &s.Description, &s.StartingPrice,
		&s.Duration, &s.DurationMinutes, &packagesJSON, &galleryJSON, &attributesJSON,
		&s.Tags, &s.ServiceType, &s.CategoryTag, &s.Subcategory, &s.H3Index,
		&s.IsSinglePackage, &s.RequiresQuote, &s.UseCompanyAvailability, &s.IsActive, &s.CreatedAt,
		&s.CompanyName, &s.CompanyLogo, &s.CompanyRating, &s.CompanySlug,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}

	if len(packagesJSON) > 0 {
		_ = json.Unmarshal(packagesJSON, &s.Packages)
	}
	_ = json.Unmarshal(galleryJSON, &s.Gallery)
	if len(attributesJSON) > 0 {
		_ = json.Unmarshal(attributesJSON, &s.Attributes)
	}

	return c.JSON(http.StatusOK, s)
}

// ListMyServices returns the caller company's services.
func (h *Handler) ListMyServices(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT s.id, s.title, s.starting_price, COALESCE(s.duration, ''), s.service_type,
		       s.category_tag, s.subcategory, s.requires_quote, s.is_active, s.created_at
		FROM services s
		JOIN companies co ON co.id = s.company_id
		WHERE co.profile_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list services"})
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Title, &s.StartingPrice, &s.Duration, &s.ServiceType,
			&s.CategoryTag, &s.Subcategory, &s.RequiresQuote, &s.IsActive, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		services = append(services, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// UploadAsset receives a multipart file for a public bucket and returns its
// URL, ready to be stored inline on a service or company row.
func (h *Handler) UploadAsset(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	bucket := c.Param("bucket")
	if bucket != storage.BucketPortfolio && bucket != storage.BucketCompanyAssets {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bucket"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	_, publicURL, err := h.store.Save(bucket, file.Filename, src)
	if err != nil {
		h.log.Error().Err(err).Str("bucket", bucket).Msg("asset upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"url": publicURL})
}
