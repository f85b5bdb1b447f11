package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func protectedRouter() *gin.Engine {
	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id":   GetUserID(c),
			"username":  GetUsername(c),
			"role":      GetRole(c),
			"tenant_id": GetTenantID(c),
		})
	})
	return router
}

func bearer(t *testing.T, userID, tenantID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, tenantID, "testuser", role, 24)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthRequired_NoHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":401`)
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	router := protectedRouter()
	for _, header := range []string{"InvalidToken", "Basic token123", "Bearer", "Bearer "} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	protectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_ValidToken(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", bearer(t, 7, 3, "operator"))
	protectedRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		UserID   uint   `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
		TenantID uint   `json:"tenant_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.UserID)
	assert.Equal(t, "testuser", body.Username)
	assert.Equal(t, "operator", body.Role)
	assert.Equal(t, uint(3), body.TenantID)
}

func roleRouter(role string, mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(ContextRole, role)
		}
		c.Next()
	})
	router.Use(mw)
	router.GET("/guarded", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestAdminRequired(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, serve(roleRouter("", AdminRequired()), "/guarded").Code)
	assert.Equal(t, http.StatusForbidden, serve(roleRouter("operator", AdminRequired()), "/guarded").Code)
	assert.Equal(t, http.StatusOK, serve(roleRouter("admin", AdminRequired()), "/guarded").Code)
}

func TestRoleRequired(t *testing.T) {
	mw := RoleRequired("admin", "operator")
	assert.Equal(t, http.StatusOK, serve(roleRouter("operator", mw), "/guarded").Code)
	assert.Equal(t, http.StatusOK, serve(roleRouter("admin", mw), "/guarded").Code)
	assert.Equal(t, http.StatusForbidden, serve(roleRouter("viewer", mw), "/guarded").Code)
	assert.Equal(t, http.StatusForbidden, serve(roleRouter("", mw), "/guarded").Code)
}

func tenantRouter(role string, home uint) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextRole, role)
		c.Set(ContextTenantID, home)
		c.Next()
	})
	router.GET("/tenants/:tenant_id/report-weeks", TenantAccess(), func(c *gin.Context) {
		c.JSON(200, gin.H{"tenant": ScopeTenantID(c)})
	})
	return router
}

func TestTenantAccess(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		home   uint
		path   string
		status int
	}{
		{"own tenant", "operator", 3, "/tenants/3/report-weeks", http.StatusOK},
		{"other tenant", "operator", 3, "/tenants/4/report-weeks", http.StatusNotFound},
		{"viewer own tenant", "viewer", 4, "/tenants/4/report-weeks", http.StatusOK},
		{"admin any tenant", "admin", 0, "/tenants/9/report-weeks", http.StatusOK},
		{"non numeric", "admin", 0, "/tenants/abc/report-weeks", http.StatusBadRequest},
		{"zero", "admin", 0, "/tenants/0/report-weeks", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(tenantRouter(tt.role, tt.home), tt.path).Code)
		})
	}
}

func TestTenantAccess_SetsScope(t *testing.T) {
	w := serve(tenantRouter("admin", 0), "/tenants/12/report-weeks")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant":12}`, w.Body.String())
}

func TestContextGettersDefaults(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Zero(t, GetUserID(c))
	assert.Empty(t, GetUsername(c))
	assert.Empty(t, GetRole(c))
	assert.Zero(t, GetTenantID(c))
	assert.Zero(t, ScopeTenantID(c))

	c.Set(ContextUserID, uint(42))
	assert.Equal(t, uint(42), GetUserID(c))
}
