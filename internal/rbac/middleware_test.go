package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"feedback-call-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func request(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if role != "" {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u-1", role))
			c.Next()
		})
	}
	r.GET("/x", mw, func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole(t *testing.T) {
	mw := RequireAnyRole(RoleOperator)

	if got := request(t, RoleOperator, mw); got != http.StatusOK {
		t.Fatalf("operator: expected 200, got %d", got)
	}
	if got := request(t, RoleAdmin, mw); got != http.StatusOK {
		t.Fatalf("admin bypass: expected 200, got %d", got)
	}
	if got := request(t, RoleViewer, mw); got != http.StatusForbidden {
		t.Fatalf("viewer: expected 403, got %d", got)
	}
	if got := request(t, "", mw); got != http.StatusUnauthorized {
		t.Fatalf("missing identity: expected 401, got %d", got)
	}
}
