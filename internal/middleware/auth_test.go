package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	tokens map[string]*service.Claims
	err    error
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (*service.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, service.ErrTokenInvalid
}

func newGuardedRouter(v TokenValidator, roles ...model.Role) *gin.Engine {
	r := gin.New()
	r.GET("/protected", RequireRoles(v, roles...), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(p.Role))
	})
	return r
}

func TestRequireRoles(t *testing.T) {
	student := &service.Claims{UserID: uuid.New(), Role: model.RoleStudent}
	v := &fakeValidator{tokens: map[string]*service.Claims{"student-token": student}}
	r := newGuardedRouter(v, model.RoleAdmin, model.RoleStudent)
	adminOnly := newGuardedRouter(v, model.RoleAdmin)

	tests := []struct {
		name   string
		router *gin.Engine
		header string
		query  string
		want   int
	}{
		{"missing token", r, "", "", http.StatusUnauthorized},
		{"malformed header", r, "Token student-token", "", http.StatusUnauthorized},
		{"invalid token", r, "Bearer forged", "", http.StatusBadRequest},
		{"allowed role", r, "Bearer student-token", "", http.StatusOK},
		{"case-insensitive scheme", r, "bearer student-token", "", http.StatusOK},
		{"query fallback", r, "", "?token=student-token", http.StatusOK},
		{"wrong role", adminOnly, "Bearer student-token", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tt.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRoles_AnyRole(t *testing.T) {
	evaluator := &service.Claims{UserID: uuid.New(), Role: model.RoleEvaluator}
	r := newGuardedRouter(&fakeValidator{tokens: map[string]*service.Claims{"t": evaluator}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "evaluator", w.Body.String())
}

func TestRequireRoles_RevokedAndBackendErrors(t *testing.T) {
	revoked := newGuardedRouter(&fakeValidator{err: service.ErrTokenRevoked})
	broken := newGuardedRouter(&fakeValidator{err: errors.New("redis down")})

	for router, want := range map[*gin.Engine]int{revoked: http.StatusBadRequest, broken: http.StatusInternalServerError} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer anything")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
