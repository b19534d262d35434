package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	NewOpenAPIHandler(nil).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("YAML status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "openapi: 3") {
		t.Errorf("Unexpected YAML body prefix %q", w.Body.String()[:20])
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("JSON status = %d", w.Code)
	}
	var doc struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON spec: %v", err)
	}
	if doc.OpenAPI != "3.0.3" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	for _, path := range []string{"/api/v1/people", "/api/v1/people/{name}/reminders", "/api/v1/tasks/{id}", "/api/v1/reminders"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("Expected path %s in spec", path)
		}
	}
}

func TestOpenAPIHandler_InvalidSpec(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	NewOpenAPIHandler([]byte("openapi: [unclosed")).ServeJSON(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for invalid spec, got %d", w.Code)
	}
}
