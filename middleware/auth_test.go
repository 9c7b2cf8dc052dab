package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHasScope(t *testing.T) {
	tests := []struct {
		name     string
		scope    string
		expected string
		has      bool
	}{
		{"single matching scope", "read:orders", "read:orders", true},
		{"scope among several", "read:orders write:orders", "write:orders", true},
		{"missing scope", "read:orders", "write:orders", false},
		{"empty scope", "", "read:orders", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Scope: tt.scope}
			assert.Equal(t, tt.has, claims.HasScope(tt.expected))
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing user id", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, err := GetUserID(c)
		assert.Error(t, err)
	})

	t.Run("user id present", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", "auth0|staff123")
		id, err := GetUserID(c)
		assert.NoError(t, err)
		assert.Equal(t, "auth0|staff123", id)
	})

	t.Run("user id wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user_id", 42)
		_, err := GetUserID(c)
		assert.Error(t, err)
	})
}

func staffContext(role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|staff123"},
		CustomClaims:     &CustomClaims{Role: role},
	}
}

func TestRequireStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)

	runWithClaims := func(claims *validator.ValidatedClaims) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if claims != nil {
				c.Set("validated_claims", claims)
			}
		})
		router.GET("/staff-only", RequireStaff(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		req, _ := http.NewRequest("GET", "/staff-only", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("staff role passes", func(t *testing.T) {
		w := runWithClaims(staffContext("staff"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("customer role forbidden", func(t *testing.T) {
		w := runWithClaims(staffContext("customer"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no claims unauthorized", func(t *testing.T) {
		w := runWithClaims(nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{Code: "FORBIDDEN", Message: "Staff role required"}
	assert.Equal(t, "Staff role required", err.Error())
}
