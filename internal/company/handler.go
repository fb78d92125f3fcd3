package company

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/geo"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
)

// searchFetchCap bounds the candidate set for price-bucket filtering and
// distance sorting, which happen after the SQL fetch.
const searchFetchCap = 500

type Handler struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	store *storage.Store
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, store *storage.Store) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "company").Logger(), store: store}
}

type RegisterRequest struct {
	CompanyName string  `json:"company_name"`
	LegalName   string  `json:"legal_name"`
	CNPJ        string  `json:"cnpj"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Address     Address `json:"address"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Website     string  `json:"website"`
}

// Register creates the caller's company profile in pending status.
func (h *Handler) Register(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.CompanyName == "" || req.Category == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name, category and email are required"})
	}

	slug := Slugify(req.CompanyName)
	if slug == "" {
		slug = "company"
	}
	slug = slug + "-" + uuid.NewString()[:8]

	var h3Index *string
	if req.Address.Lat != 0 || req.Address.Lng != 0 {
		if idx, err := geo.CellIndex(req.Address.Lat, req.Address.Lng, geo.ResolutionUrban); err == nil {
			h3Index = &idx
		}
	}

	addressJSON, _ := json.Marshal(req.Address)

	var companyID string
	err := h.pool.QueryRow(c.Request().Context(), `
		INSERT INTO companies (profile_id, slug, company_name, legal_name, cnpj, category,
			description, address, h3_index, phone, email, website)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, userID, slug, req.CompanyName, req.LegalName, req.CNPJ, req.Category,
		req.Description, addressJSON, h3Index, req.Phone, req.Email, req.Website,
	).Scan(&companyID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("company insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register company"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"company_id": companyID, "slug": slug, "status": StatusPending})
}

// GetMine returns the caller's own company, any status.
func (h *Handler) GetMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	co, err := h.fetchOne(c, `co.profile_id = $1`, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch company"})
	}
	return c.JSON(http.StatusOK, co)
}

// GetBySlug returns a public company page. Only approved companies are
// visible here.
func (h *Handler) GetBySlug(c echo.Context) error {
	co, err := h.fetchOne(c, `co.slug = $1 AND co.status = 'approved'`, c.Param("slug"))
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch company"})
	}
	return c.JSON(http.StatusOK, co)
}

func (h *Handler) fetchOne(c echo.Context, where string, arg any) (*Company, error) {
	var (
		co          Company
		addressJSON []byte
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT co.id, co.profile_id, co.slug, co.company_name, COALESCE(co.legal_name, ''),
		       COALESCE(co.cnpj, ''), co.category, COALESCE(co.description, ''),
		       COALESCE(co.logo_url, ''), COALESCE(co.cover_image_url, ''), co.address, co.h3_index,
		       COALESCE(co.phone, ''), co.email, COALESCE(co.website, ''), co.rating, co.review_count,
		       co.status, co.verified, co.current_plan_tier, co.charges_enabled, co.created_at
		FROM companies co
		WHERE `+where, arg,
	).Scan(&co.ID, &co.ProfileID, &co.Slug, &co.CompanyName, &co.LegalName,
		&co.CNPJ, &co.Category, &co.Description,
		&co.LogoURL, &co.CoverImageURL, &addressJSON, &co.H3Index,
		&co.Phone, &co.Email, &co.Website, &co.Rating, &co.ReviewCount,
		&co.Status, &co.Verified, &co.CurrentPlanTier, &co.ChargesEnabled, &co.CreatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(addressJSON, &co.Address)
	return &co, nil
}

// Update rewrites the caller's company profile. Address changes recompute
// the H3 cell.
func (h *Handler) Update(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	var h3Index *string
	var addressJSON []byte
	if req.Address.Lat != 0 || req.Address.Lng != 0 {
		if idx, err := geo.CellIndex(req.Address.Lat, req.Address.Lng, geo.ResolutionUrban); err == nil {
			h3Index = &idx
		}
		addressJSON, _ = json.Marshal(req.Address)
	}

	res, err := h.pool.Exec(c.Request().Context(), `
		UPDATE companies SET
			company_name = COALESCE(NULLIF($1, ''), company_name),
			legal_name = COALESCE(NULLIF($2, ''), legal_name),
			category = COALESCE(NULLIF($3, ''), category),
			description = COALESCE(NULLIF($4, ''), description),
			phone = COALESCE(NULLIF($5, ''), phone),
			email = COALESCE(NULLIF($6, ''), email),
			website = COALESCE(NULLIF($7, ''), website),
			address = COALESCE($8, address),
			h3_index = COALESCE($9, h3_index),
			updated_at = NOW()
		WHERE profile_id = $10
	`, req.CompanyName, req.LegalName, req.Category, req.Description,
		req.Phone, req.Email, req.Website, addressJSON, h3Index, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update company"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "company updated"})
}

// UploadBranding receives a logo or cover image and stores its URL on the
// company row. The "kind" form value selects the column.
func (h *Handler) UploadBranding(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	kind := c.FormValue("kind")
	var column string
	switch kind {
	case "logo":
		column = "logo_url"
	case "cover":
		column = "cover_image_url"
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be logo or cover"})
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

	_, publicURL, err := h.store.Save(storage.BucketCompanyAssets, file.Filename, src)
	if err != nil {
		h.log.Error().Err(err).Msg("branding upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	res, err := h.pool.Exec(c.Request().Context(),
		`UPDATE companies SET `+column+` = $1, updated_at = NOW() WHERE profile_id = $2`,
		publicURL, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save image"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": publicURL})
}

func parseSearchFilters(c echo.Context) SearchFilters {
	f := SearchFilters{
		Query:    c.QueryParam("q"),
		Location: c.QueryParam("loc"),
		Category: c.QueryParam("cat"),
		Sort:     c.QueryParam("sort"),
		Price:    c.QueryParam("price"),
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))

	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat == nil && errLng == nil {
		f.Lat, f.Lng, f.HasCoord = lat, lng, true
	}

	f.normalize()
	return f
}

// Search lists approved companies with the filter set carried in the query
// string. Price buckets and distance sorting run over the fetched page
// candidates since both depend on derived values.
func (h *Handler) Search(c echo.Context) error {
	f := parseSearchFilters(c)

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT co.id, co.slug, co.company_name, co.category, COALESCE(co.description, ''),
		       COALESCE(co.logo_url, ''), COALESCE(co.cover_image_url, ''), co.address,
		       co.rating, co.review_count, co.verified, co.created_at,
		       COALESCE(MIN(s.starting_price) FILTER (WHERE s.starting_price > 0), 0) AS min_price
		FROM companies co
		LEFT JOIN services s ON s.company_id = co.id AND s.is_active
		WHERE co.status = 'approved'
		  AND ($1 = '' OR co.company_name ILIKE '%' || $1 || '%'
		       OR EXISTS (SELECT 1 FROM services sv
		                  WHERE sv.company_id = co.id AND sv.is_active AND sv.title ILIKE '%' || $1 || '%'))
		  AND ($2 = '' OR co.address->>'city' ILIKE '%' || $2 || '%'
		       OR co.address->>'state' ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR co.category = $3)
		GROUP BY co.id
		ORDER BY CASE WHEN $4 = 'name' THEN co.company_name END ASC,
		         co.rating DESC, co.company_name ASC
		LIMIT $5
	`, f.Query, f.Location, f.Category, f.Sort, searchFetchCap)
	if err != nil {
		h.log.Error().Err(err).Msg("company search failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var (
			co          Company
			addressJSON []byte
		)
		if err := rows.Scan(&co.ID, &co.Slug, &co.CompanyName, &co.Category, &co.Description,
			&co.LogoURL, &co.CoverImageURL, &addressJSON,
			&co.Rating, &co.ReviewCount, &co.Verified, &co.CreatedAt, &co.MinPrice); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		_ = json.Unmarshal(addressJSON, &co.Address)
		companies = append(companies, co)
	}

	companies = FilterByPrice(companies, f.Price)

	if f.HasCoord {
		for i := range companies {
			addr := companies[i].Address
			if addr.Lat != 0 || addr.Lng != 0 {
				d := geo.Distance(f.Lat, f.Lng, addr.Lat, addr.Lng)
				companies[i].DistanceKm = &d
			}
		}
		if f.Sort == SortDistance {
			SortByDistance(companies)
		}
	}

	total := len(companies)
	totalPages := (total + DefaultPageSize - 1) / DefaultPageSize
	start := (f.Page - 1) * DefaultPageSize
	if start > total {
		start = total
	}
	end := start + DefaultPageSize
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, echo.Map{
		"companies":   companies[start:end],
		"total":       total,
		"page":        f.Page,
		"total_pages": totalPages,
		"pages":       PageNumbers(f.Page, totalPages),
	})
}

// GetAvailability returns the caller company's weekly schedule blob.
func (h *Handler) GetAvailability(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var blob []byte
	err := h.pool.QueryRow(c.Request().Context(),
		`SELECT availability FROM companies WHERE profile_id = $1`, userID).Scan(&blob)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch availability"})
	}

	if len(blob) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"availability": nil})
	}
	var week WeekSchedule
	if err := json.Unmarshal(blob, &week); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": week})
}

// SetAvailability validates and stores the weekly schedule blob.
func (h *Handler) SetAvailability(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var week WeekSchedule
	if err := c.Bind(&week); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if err := week.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	blob, err := json.Marshal(week)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode availability"})
	}

	res, err := h.pool.Exec(c.Request().Context(),
		`UPDATE companies SET availability = $1, updated_at = NOW() WHERE profile_id = $2`, blob, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save availability"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "availability saved"})
}

// AvailableSlots lists bookable start times for a company on one date,
// excluding windows already taken by pending or confirmed bookings.
func (h *Handler) AvailableSlots(c echo.Context) error {
	companyID := c.Param("id")
	dateStr := c.QueryParam("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	duration, _ := strconv.Atoi(c.QueryParam("duration"))
	if serviceID := c.QueryParam("service_id"); serviceID != "" {
		var svcDuration int
		if err := h.pool.QueryRow(c.Request().Context(),
			`SELECT duration_minutes FROM services WHERE id = $1 AND company_id = $2`,
			serviceID, companyID).Scan(&svcDuration); err == nil && svcDuration > 0 {
			duration = svcDuration
		}
	}

	var blob []byte
	err = h.pool.QueryRow(c.Request().Context(),
		`SELECT availability FROM companies WHERE id = $1 AND status = 'approved'`, companyID).Scan(&blob)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch availability"})
	}
	if len(blob) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"date": dateStr, "slots": []string{}})
	}
	var week WeekSchedule
	if err := json.Unmarshal(blob, &week); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt availability"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT booking_time, duration_minutes FROM bookings
		WHERE company_id = $1 AND booking_date = $2 AND status IN ('pending', 'confirmed')
	`, companyID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch bookings"})
	}
	defer rows.Close()

	var booked []BookedBlock
	for rows.Next() {
		var b BookedBlock
		if err := rows.Scan(&b.Time, &b.DurationMinutes); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		booked = append(booked, b)
	}

	slots := SlotsForDate(date, &week, duration, booked)
	if slots == nil {
		slots = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"date": dateStr, "slots": slots})
}

// ListPortfolio returns a company's portfolio, newest first.
func (h *Handler) ListPortfolio(c echo.Context) error {
	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT id, company_id, type, image_url, COALESCE(caption, ''), created_at
		FROM portfolio_items WHERE company_id = $1 ORDER BY created_at DESC
	`, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list portfolio"})
	}
	defer rows.Close()

	var items []PortfolioItem
	for rows.Next() {
		var it PortfolioItem
		if err := rows.Scan(&it.ID, &it.CompanyID, &it.Type, &it.ImageURL, &it.Caption, &it.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		items = append(items, it)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddPortfolioItem uploads one image into the portfolio bucket and records
// it against the caller's company.
func (h *Handler) AddPortfolioItem(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
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

	_, publicURL, err := h.store.Save(storage.BucketPortfolio, file.Filename, src)
	if err != nil {
		h.log.Error().Err(err).Msg("portfolio upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	var itemID string
	err = h.pool.QueryRow(c.Request().Context(), `
		INSERT INTO portfolio_items (company_id, type, image_url, caption)
		SELECT id, 'image', $1, $2 FROM companies WHERE profile_id = $3
		RETURNING id
	`, publicURL, c.FormValue("caption"), userID).Scan(&itemID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save portfolio item"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"item_id": itemID, "url": publicURL})
}

// DeletePortfolioItem removes an owned portfolio item.
func (h *Handler) DeletePortfolioItem(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := h.pool.Exec(c.Request().Context(), `
		DELETE FROM portfolio_items pi
		USING companies co
		WHERE pi.id = $1 AND pi.company_id = co.id AND co.profile_id = $2
	`, c.Param("itemID"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete item"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "item removed"})
}

// ListTeam returns a company's team members.
func (h *Handler) ListTeam(c echo.Context) error {
	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT id, company_id, name, COALESCE(role, ''), COALESCE(avatar_url, '')
		FROM team_members WHERE company_id = $1 ORDER BY created_at
	`, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list team"})
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Name, &m.Role, &m.AvatarURL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		members = append(members, m)
	}

	return c.JSON(http.StatusOK, echo.Map{"members": members})
}
