package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cervicare-server/internal/auth"
	"cervicare-server/internal/domain"
	"cervicare-server/internal/service"
)

// claimsKey is the gin context key the auth middleware stores verified
// claims under.
const claimsKey = "authClaims"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tokens *auth.TokenManager
}

func NewHandler(users service.UserService, tokens *auth.TokenManager) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/signup", h.signup)
		authRoutes.POST("/login", h.login)

		profile := api.Group("/profile")
		profile.Use(h.requireAuth())
		profile.GET("", h.getProfile)
		profile.PUT("", h.updateProfile)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}

	// unmatched /api/* paths answer JSON instead of a bare 404
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.Status(http.StatusNotFound)
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth extracts and verifies the bearer token, rejecting the request
// before any handler or store access happens.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// bearerToken parses an "Authorization: Bearer <token>" header. The scheme
// match is case-insensitive.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func authClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	// pointer so a missing name and an empty name stay distinguishable
	Name *string `json:"name"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	JoinedAt string `json:"joinedAt"`
}

func profileToResponse(p *domain.Profile) userResponse {
	return userResponse{
		ID:       p.ID,
		Email:    p.Email,
		Name:     p.Name,
		JoinedAt: p.JoinedAt,
	}
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	err := h.users.Signup(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return
	}

	profile, token, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  profileToResponse(profile),
		})
	}
}

func (h *Handler) getProfile(c *gin.Context) {
	claims := authClaims(c)

	profile, err := h.users.GetProfile(c.Request.Context(), claims.UserID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, profileToResponse(profile))
	}
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name required"})
		return
	}

	claims := authClaims(c)

	profile, err := h.users.UpdateName(c.Request.Context(), claims.UserID, *req.Name)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, profileToResponse(profile))
	}
}
