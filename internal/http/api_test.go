package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cervicare-server/internal/auth"
	"cervicare-server/internal/repository/jsonfile"
	"cervicare-server/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := jsonfile.NewUserRepository(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, repo.Init(context.Background()))

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewHandler(service.NewUserService(repo, tokens), tokens)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, tokens
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupLoginProfileFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	creds := map[string]string{"email": "t1@example.com", "password": "Secret123"}

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "t1@example.com", user["email"])
	assert.Equal(t, "t1", user["name"])
	assert.NotContains(t, user, "passwordHash")
	_, err := time.Parse(time.RFC3339, user["joinedAt"].(string))
	assert.NoError(t, err)

	rec = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody(t, rec)
	assert.Equal(t, "t1@example.com", profile["email"])
	assert.Equal(t, "t1", profile["name"])
	assert.NotContains(t, profile, "passwordHash")

	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]string{"name": "Tess"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)
	assert.Equal(t, "Tess", updated["name"])
	assert.Equal(t, profile["id"], updated["id"])
	assert.Equal(t, profile["email"], updated["email"])
	assert.Equal(t, profile["joinedAt"], updated["joinedAt"])

	rec = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tess", decodeBody(t, rec)["name"])
}

func TestSignup_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_DuplicateCasingConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "A@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@x.com", "password": "pw123456"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decodeBody(t, rec)["error"])
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "t1@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPw := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "t1@example.com", "password": "nope"})
	noUser := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.Equal(t, wrongPw.Body.String(), noUser.Body.String())
}

func TestUpdateProfile_InvalidPayload(t *testing.T) {
	router, tokens := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "t1@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token, err := tokens.Issue(1, "t1@example.com")
	require.NoError(t, err)

	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]any{"name": 123})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// empty string is a valid name
	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfile_TokenForVanishedUser(t *testing.T) {
	router, tokens := newTestRouter(t)

	token, err := tokens.Issue(42, "ghost@example.com")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]string{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "API endpoint not found", decodeBody(t, rec)["error"])
}
