package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/geo"
)

// cacheTTL keeps the feed hot without serving stale listings for long.
const cacheTTL = 60 * time.Second

type Handler struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	cache *redis.Client
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, cache *redis.Client) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "feed").Logger(), cache: cache}
}

// Feed returns the marketplace feed. With resolvable coordinates the
// remote/hybrid results are merged with presential services inside the
// k-ring around the caller; without them it degrades to remote-only.
func (h *Handler) Feed(c echo.Context) error {
	ctx := c.Request().Context()

	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	located := errLat == nil && errLng == nil

	cacheKey := "feed:remote"
	var cells []string
	if located {
		var err error
		cells, err = geo.SearchIndexes(lat, lng, geo.DefaultRings, geo.ResolutionUrban)
		if err != nil {
			// Unresolvable location degrades to remote-only.
			h.log.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("h3 lookup failed")
			located = false
		} else {
			center, _ := geo.CellIndex(lat, lng, geo.ResolutionUrban)
			cacheKey = "feed:cell:" + center
		}
	}

	if cached := h.fromCache(ctx, cacheKey); cached != nil {
		return c.JSONBlob(http.StatusOK, cached)
	}

	remote, err := h.queryServices(ctx, `s.service_type IN ('remote', 'hybrid')`, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("remote feed query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load feed"})
	}

	// Without a resolvable location presential services fall back to a
	// recency listing instead of the k-ring lookup.
	var nearby []catalog.Service
	if located {
		nearby, err = h.queryServices(ctx, `s.service_type = 'presential' AND s.h3_index = ANY($1)`, cells)
	} else {
		nearby, err = h.queryRecentPresential(ctx)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("presential feed query failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load feed"})
	}

	merged := Merge(remote, nearby)

	body, err := json.Marshal(echo.Map{"services": merged, "located": located})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode feed"})
	}
	h.toCache(ctx, cacheKey, body)

	return c.JSONBlob(http.StatusOK, body)
}

func (h *Handler) queryRecentPresential(ctx context.Context) ([]catalog.Service, error) {
	return h.query(ctx, `s.service_type = 'presential'`, `ORDER BY s.created_at DESC`, nil)
}

func (h *Handler) queryServices(ctx context.Context, where string, cells []string) ([]catalog.Service, error) {
	return h.query(ctx, where, "", cells)
}

func (h *Handler) query(ctx context.Context, where, order string, cells []string) ([]catalog.Service, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.company_id, s.title, s.starting_price, COALESCE(s.duration, ''),
		       s.gallery, s.service_type, s.category_tag, s.subcategory, s.requires_quote,
		       co.company_name, COALESCE(co.logo_url, ''), co.rating, co.slug
		FROM services s
		JOIN companies co ON co.id = s.company_id
		WHERE s.is_active AND co.status = 'approved' AND %s
		%s
		LIMIT 200
	`, where, order)

	var (
		rows pgx.Rows
		err  error
	)
	if cells != nil {
		rows, err = h.pool.Query(ctx, query, cells)
	} else {
		rows, err = h.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []catalog.Service
	for rows.Next() {
		var (
			s           catalog.Service
			galleryJSON []byte
		)
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Title, &s.StartingPrice, &s.Duration,
			&galleryJSON, &s.ServiceType, &s.CategoryTag, &s.Subcategory, &s.RequiresQuote,
			&s.CompanyName, &s.CompanyLogo, &s.CompanyRating, &s.CompanySlug); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(galleryJSON, &s.Gallery)
		services = append(services, s)
	}
	return services, rows.Err()
}

func (h *Handler) fromCache(ctx context.Context, key string) []byte {
	if h.cache == nil {
		return nil
	}
	body, err := h.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return body
}

func (h *Handler) toCache(ctx context.Context, key string, body []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, body, cacheTTL).Err(); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("feed cache write failed")
	}
}
