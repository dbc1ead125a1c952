package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/axellelanca/linkforge/internal/cache"
	"github.com/axellelanca/linkforge/internal/codegen"
	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/repository"
	"github.com/axellelanca/linkforge/internal/services"
	"github.com/axellelanca/linkforge/internal/testutil"
	"github.com/axellelanca/linkforge/internal/validator"
	"github.com/axellelanca/linkforge/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-jwt-secret"

type testServer struct {
	router   *gin.Engine
	recorder *workers.ClickRecorder
}

func newTestServer(t *testing.T, allowAnonymous bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	logger := zap.NewNop()
	links := repository.NewLinkRepository(db)
	clicks := repository.NewClickRepository(db)

	gen, err := codegen.New("api-test-secret", 7)
	require.NoError(t, err)

	recorder := workers.StartClickRecorder(clicks, logger, workers.Options{BufferSize: 16, WorkerCount: 2, MaxRetries: 2})
	t.Cleanup(func() { _ = recorder.Stop(context.Background()) })

	c := cache.NewMemory(100, time.Minute)
	resolver := services.NewCollisionResolver(gen, codegen.NewCounterSeed(), links, services.DefaultMaxAttempts, logger)
	linkService := services.NewLinkService(links, clicks, validator.NewHTTPValidator(false, time.Second, logger), resolver, c, logger,
		services.LinkOptions{BaseURL: "https://sho.rt", AllowAnonymous: allowAnonymous})
	redirects := services.NewRedirectService(links, c, recorder, logger)

	router := NewRouter(NewHandler(linkService, redirects, logger), RouterOptions{
		JWTSecret:      testJWTSecret,
		AllowAnonymous: allowAnonymous,
	}, logger)
	return &testServer{router: router, recorder: recorder}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, subject))
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestEndToEnd(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodPost, "/api/v1/urls", "alice", CreateURLRequest{LongURL: "https://example.com/a/b", Title: "Example"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[Response[LinkView]](t, rr)
	assert.True(t, created.Success)
	code := created.Data.Code
	assert.True(t, codegen.IsValid(code))
	assert.Equal(t, "https://sho.rt/"+code, created.Data.ShortURL)

	// Same URL again, from another owner.
	rr = s.do(t, http.MethodPost, "/api/v1/urls", "bob", CreateURLRequest{LongURL: "https://example.com/a/b"})
	require.Equal(t, http.StatusOK, rr.Code)
	again := decode[Response[LinkView]](t, rr)
	assert.Equal(t, "Provided Url already exists", again.Message)
	assert.Equal(t, code, again.Data.Code)

	// Visit.
	rr = s.do(t, http.MethodGet, "/"+code, "", nil)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://example.com/a/b", rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")

	require.NoError(t, s.recorder.Stop(context.Background()))

	rr = s.do(t, http.MethodGet, "/api/v1/urls/"+code+"/logs", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	logs := decode[Response[services.ClickLog]](t, rr)
	assert.Equal(t, int64(1), logs.Data.Clicks)
	assert.Len(t, logs.Data.Events, 1)

	rr = s.do(t, http.MethodGet, "/api/v1/urls", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[Response[[]LinkView]](t, rr)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Example", list.Data[0].Title)

	rr = s.do(t, http.MethodPut, "/api/v1/urls/"+code, "alice", UpdateURLRequest{LongURL: "https://example.com/c"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/"+code, "", nil)
	assert.Equal(t, "https://example.com/c", rr.Header().Get("Location"))

	rr = s.do(t, http.MethodDelete, "/api/v1/urls/"+code, "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/"+code, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestErrorPayloads(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodPost, "/api/v1/urls", "alice", CreateURLRequest{LongURL: "example.com"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[ErrorResponse](t, rr)
	assert.False(t, body.Success)
	assert.Equal(t, apperrors.KindInvalidInput, body.Kind)
	assert.NotEmpty(t, body.Message)
	assert.NotEmpty(t, body.RequestID)

	rr = s.do(t, http.MethodPost, "/api/v1/urls", "alice", map[string]string{"title": "no url"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/urls", "alice", CreateURLRequest{LongURL: "https://example.com/owned"})
	require.Equal(t, http.StatusCreated, rr.Code)
	code := decode[Response[LinkView]](t, rr).Data.Code

	rr = s.do(t, http.MethodPut, "/api/v1/urls/"+code, "mallory", UpdateURLRequest{LongURL: "https://evil.example.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apperrors.KindNotFound, decode[ErrorResponse](t, rr).Kind)

	rr = s.do(t, http.MethodDelete, "/api/v1/urls/"+code, "mallory", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/urls/"+code+"/logs", "mallory", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic YWxpY2U6cHc=", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token(t, "alice"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/urls", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, apperrors.KindUnauthorized, decode[ErrorResponse](t, rr).Kind)
			}
		})
	}
}

func TestAnonymousCreate(t *testing.T) {
	s := newTestServer(t, true)

	rr := s.do(t, http.MethodPost, "/api/v1/urls", "", CreateURLRequest{LongURL: "https://example.com/anon"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/v1/urls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "http_requests_total"))
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", rr.Header().Get(HeaderRequestID))
}
