package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/oelv/crm-funnel-backend/internal/http/handlers"
)

func TestNewServerServesHealthcheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer(RouterConfig{
		ServiceName:   "crm-funnel-test",
		HealthHandler: httpH.NewHealthHandler(),
	})
	if srv.Engine == nil {
		t.Fatalf("server must carry the assembled engine")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthcheck", nil)
	srv.Engine.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterProtectedRoutesNeedHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Nil handlers must not register routes or panic.
	srv := NewServer(RouterConfig{ServiceName: "crm-funnel-test"})

	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/report", nil))
	if w.Code != 404 {
		t.Fatalf("unwired route must 404, got %d", w.Code)
	}
}
