package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/middleware"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/testutil"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(authService service.AuthService, role string) *gin.Engine {
	m := middleware.NewAuthMiddleware(authService, testutil.NewTestLogger())

	r := gin.New()
	handlers := []gin.HandlerFunc{m.RequireAuth()}
	if role != "" {
		handlers = append(handlers, m.RequireRole(role))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint(middleware.ContextUserID),
			"roles":   c.GetStringSlice(middleware.ContextRoles),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		setupMock  func(*testutil.MockAuthService)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header",
			header:     "",
			setupMock:  func(m *testutil.MockAuthService) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Authorization header required",
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			setupMock:  func(m *testutil.MockAuthService) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid authorization header format",
		},
		{
			name:   "invalid token",
			header: "Bearer bad",
			setupMock: func(m *testutil.MockAuthService) {
				m.On("ValidateAccessToken", "bad").Return(nil, service.ErrInvalidToken)
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid or expired token",
		},
		{
			name:   "valid token",
			header: "Bearer good",
			setupMock: func(m *testutil.MockAuthService) {
				m.On("ValidateAccessToken", "good").Return(&token.AccessClaims{UserID: 7, Roles: []string{"user"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"user_id":7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(testutil.MockAuthService)
			tt.setupMock(authService)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newProtectedRouter(authService, "").ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			authService.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		roles      []string
		wantStatus int
	}{
		{"admin allowed", []string{models.RoleUser, models.RoleAdmin}, http.StatusOK},
		{"user forbidden", []string{models.RoleUser}, http.StatusForbidden},
		{"no roles forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(testutil.MockAuthService)
			authService.On("ValidateAccessToken", "tok").Return(&token.AccessClaims{UserID: 1, Roles: tt.roles}, nil)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			newProtectedRouter(authService, models.RoleAdmin).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
