package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tubedigest/internal/api/handler"
	"github.com/d60-Lab/tubedigest/internal/api/middleware"
	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/service"
)

const testSecret = "test-secret"

type emptySubscriptions struct{ service.SubscriptionService }

func (emptySubscriptions) List(context.Context, string) ([]*model.Subscription, error) {
	return []*model.Subscription{}, nil
}

type zeroPlans struct{}

func (zeroPlans) Limits(context.Context, string) (service.Limits, error) { return service.Limits{}, nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewHandler(emptySubscriptions{}, nil, zeroPlans{})
	return NewRouter(h, RouterOptions{JWTSecret: testSecret})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	r := newTestRouter()

	valid, err := middleware.IssueToken(testSecret, "user-1", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)
	expired, err := middleware.IssueToken(testSecret, "user-1", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)
	forged, err := middleware.IssueToken("other-secret", "user-1", jwt.RegisteredClaims{})
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		want   int
	}{
		"missing": {"", http.StatusUnauthorized},
		"scheme":  {"Basic abc", http.StatusUnauthorized},
		"expired": {"Bearer " + expired, http.StatusUnauthorized},
		"forged":  {"Bearer " + forged, http.StatusUnauthorized},
		"valid":   {"Bearer " + valid, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
