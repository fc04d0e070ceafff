package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/handlers"
	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/middleware"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, GracefulStop: 1},
		Security: config.SecurityConfig{
			AllowedOrigins:     []string{"https://app.sendit.test"},
			RateLimitEnabled:   true,
			RateLimitPerMinute: 60,
			RateLimitBurstSize: 1,
		},
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := New(testConfig(), &handlers.Deps{
		Tokens: utils.NewTokenService("secret", 0),
		Log:    logger.Discard(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.sendit.test")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.sendit.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestStopWithoutStart(t *testing.T) {
	srv := New(testConfig(), &handlers.Deps{Tokens: utils.NewTokenService("secret", 0), Log: logger.Discard()})
	assert.NoError(t, srv.Stop(context.Background()))
}
