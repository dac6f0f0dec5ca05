package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/user"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func requestAs(ctx context.Context, principal *user.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		ctx = WithPrincipal(ctx, *principal)
	}
	return req.WithContext(ctx)
}

func TestPrincipalFromContext(t *testing.T) {
	_, err := PrincipalFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingPrincipal)

	ctx := WithPrincipal(context.Background(), user.Principal{UserID: "u1", Role: user.RoleAdmin})
	principal, err := PrincipalFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)
}

func TestRateLimit_PerUser(t *testing.T) {
	handler := RateLimit(1, 2)(okHandler)
	alice := &user.Principal{UserID: "alice", Role: user.RoleUser}
	bob := &user.Principal{UserID: "bob", Role: user.RoleUser}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAs(context.Background(), alice))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(context.Background(), bob))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(okHandler)

	tests := []struct {
		name      string
		principal *user.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &user.Principal{UserID: "u", Role: user.RoleUser}, http.StatusForbidden},
		{"admin", &user.Principal{UserID: "a", Role: user.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestAs(context.Background(), tt.principal))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireEmployeeAccess(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			own := "emp-1"
			ctx := WithPrincipal(req.Context(), user.Principal{UserID: "u", EmployeeID: &own, Role: user.RoleUser})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.With(RequireEmployeeAccess("id")).Get("/employees/{id}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employees/emp-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employees/emp-2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
