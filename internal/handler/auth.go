package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/catalog"
	"github.com/iliyamo/studio-slot-reservation/internal/middleware"
	"github.com/iliyamo/studio-slot-reservation/internal/utils"
)

// AuthHandler issues access tokens for roster members.
type AuthHandler struct {
	Catalog   *catalog.Catalog
	JWTSecret string
	AccessTTL time.Duration
	Logger    *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cat *catalog.Catalog, secret string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Catalog: cat, JWTSecret: secret, AccessTTL: ttl, Logger: logger}
}

type loginReq struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type memberPart struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
}

type loginResp struct {
	Member  memberPart `json:"member"`
	Token   string     `json:"token"`
	Expires time.Time  `json:"expires"`
}

// Login looks the phone number up in the roster and returns an access
// token.  Members with a PIN hash must also present the matching PIN.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone required"})
	}

	m, err := h.Catalog.Member(req.Phone)
	if errors.Is(err, catalog.ErrUnknownMember) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if m.PinHash != "" && !utils.VerifyPassword(m.PinHash, req.PIN) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.JWTSecret, m.Identity, m.Name, m.IsAdmin, h.AccessTTL)
	if err != nil {
		h.Logger.Error("issue access token failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	h.Logger.Info("member logged in", zap.String("identity", m.Identity), zap.Bool("admin", m.IsAdmin))
	return c.JSON(http.StatusOK, loginResp{
		Member:  memberPart{Identity: m.Identity, Name: m.Name, IsAdmin: m.IsAdmin},
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// Me returns the member named by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, memberPart{Identity: caller.Identity, Name: caller.Name, IsAdmin: caller.IsAdmin})
}

// Logout acknowledges a logout.  Access tokens are stateless, so the
// client discards its token and nothing is revoked server side.
func (h *AuthHandler) Logout(c echo.Context) error {
	if caller, ok := middleware.CallerFrom(c); ok {
		h.Logger.Info("member logged out", zap.String("identity", caller.Identity))
	}
	return c.NoContent(http.StatusNoContent)
}

// Members lists the roster for administrators.  PIN hashes are never
// returned.
func (h *AuthHandler) Members(c echo.Context) error {
	members := h.Catalog.Members()
	out := make([]memberPart, 0, len(members))
	for _, m := range members {
		out = append(out, memberPart{Identity: m.Identity, Name: m.Name, IsAdmin: m.IsAdmin})
	}
	return c.JSON(http.StatusOK, echo.Map{"members": out})
}
