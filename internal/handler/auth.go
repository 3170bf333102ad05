package handler

import (
    "net/http" // HTTP status codes and primitives

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/chenti-tech/classseat/internal/config" // app configuration
    "github.com/chenti-tech/classseat/internal/utils"  // token issuing and password hashing
)

// AuthHandler implements the single operator login.  There is no customer
// account system: the public form is anonymous, and every privileged
// operation is gated on the ADMIN role carried in the JWT this handler
// issues.
type AuthHandler struct {
    Cfg config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config) *AuthHandler {
    return &AuthHandler{Cfg: cfg}
}

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// Login handles POST /v1/auth/login.  It verifies the operator credentials
// against the configured bcrypt hash and returns a short-lived admin JWT.
// Invalid credentials always produce the same 401 so the response does not
// reveal whether the username exists.
func (h *AuthHandler) Login(c echo.Context) error {
    var body loginReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Username != h.Cfg.AdminUser || !utils.VerifyPassword(h.Cfg.AdminPassHash, body.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, body.Username, "ADMIN", h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access_token": tok.Token,
        "expires_at":   tok.Exp,
    })
}
