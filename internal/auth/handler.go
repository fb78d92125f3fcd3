package auth

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
)

// Handler serves signup, login and profile endpoints.
type Handler struct {
	pool     *pgxpool.Pool
	log      zerolog.Logger
	bus      *events.Bus
	secret   []byte
	tokenTTL time.Duration
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, bus *events.Bus, secret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{
		pool:     pool,
		log:      log.With().Str("component", "auth").Logger(),
		bus:      bus,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// RegisteredEvent is published once a signup commits.
type RegisteredEvent struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type SignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Signup registers a client or company profile and its wallet.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.FullName == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 6 characters are required"})
	}

	role := req.Role
	if role == "" {
		role = RoleClient
	}
	if role != RoleClient && role != RoleCompany {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be client or company"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := c.Request().Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (full_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, req.FullName, req.Email, string(hashed), role).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	if _, err := tx.Exec(ctx, `INSERT INTO wallets (user_id) VALUES ($1)`, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "wallet creation failed"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	signed, err := IssueToken(h.secret, userID, role, h.tokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	_ = h.bus.PublishJSON(events.EventUserRegistered, RegisteredEvent{
		UserID:   userID,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     role,
	})

	h.log.Info().Str("user_id", userID).Str("role", role).Msg("profile created")
	return c.JSON(http.StatusCreated, TokenResponse{Token: signed})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a JWT.
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	var (
		userID   string
		hash     string
		role     string
		isActive bool
	)
	err := h.pool.QueryRow(ctx, `
		SELECT id, password_hash, role, is_active FROM profiles WHERE email = $1
	`, req.Email).Scan(&userID, &hash, &role, &isActive)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !isActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	signed, err := IssueToken(h.secret, userID, role, h.tokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		id, fullName, email, role string
		avatarURL, phone          *string
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT id, full_name, email, role, avatar_url, phone FROM profiles WHERE id = $1
	`, userID).Scan(&id, &fullName, &email, &role, &avatarURL, &phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         id,
		"full_name":  fullName,
		"email":      email,
		"role":       role,
		"avatar_url": avatarURL,
		"phone":      phone,
	})
}

type UpdateProfileRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile patches the caller's own profile; empty fields keep old values.
func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	_, err := h.pool.Exec(c.Request().Context(), `
		UPDATE profiles
		SET full_name = COALESCE(NULLIF($1, ''), full_name),
		    phone = COALESCE(NULLIF($2, ''), phone),
		    avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
		    updated_at = NOW()
		WHERE id = $4
	`, req.FullName, req.Phone, req.AvatarURL, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated successfully"})
}
