package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canteenhq/canteen-api/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// testRouter creates the full router with a minimal test configuration
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Port:           "8080",
		GoEnv:          "test",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	return setupRouter(cfg)
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router := testRouter()

	// Create a test request
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	// Serve the request
	router.ServeHTTP(w, req)

	// Assert status code
	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	// Parse and verify response
	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Canteen Order Pipeline API is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	router := testRouter()

	// Test POST method (should fail)
	req, _ := http.NewRequest("POST", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "POST should not be allowed")

	// Test PUT method (should fail)
	req, _ = http.NewRequest("PUT", "/api/v1/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "PUT should not be allowed")
}

// TestStaffRoutesRequireToken verifies the staff surface is closed without a JWT
func TestStaffRoutesRequireToken(t *testing.T) {
	router := testRouter()

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/orders"},
		{"PUT", "/api/v1/orders/1/status"},
		{"PUT", "/api/v1/staff/orders/1/payment"},
		{"POST", "/api/v1/staff/manual-order"},
		{"GET", "/api/v1/staff/kitchen/board"},
		{"POST", "/api/v1/staff/kitchen/laps"},
		{"GET", "/api/v1/staff/stats"},
	}

	for _, route := range routes {
		req, _ := http.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code,
			"%s %s should require a token", route.method, route.path)
	}
}

// TestWebsocketRouteWithoutHub verifies /ws degrades cleanly when the hub is down
func TestWebsocketRouteWithoutHub(t *testing.T) {
	router := testRouter()

	req, _ := http.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "CHANNEL_UNAVAILABLE", errObj["code"])
}
