package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path, method   string
		module, action string
	}{
		{"/api/tenants/:tenant_id/report-weeks", "POST", "Report Weeks", "Create"},
		{"/api/tenants/:tenant_id/report-weeks/:id", "PUT", "Report Weeks", "Update"},
		{"/api/tenants/:tenant_id/report-weeks/:id/manual", "PATCH", "Report Weeks", "Update"},
		{"/api/tenants/:tenant_id/report-weeks/:id", "DELETE", "Report Weeks", "Delete"},
		{"/api/tenants", "POST", "Tenants", "Create"},
		{"/api/auth/change-password", "POST", "Auth", "Create"},
		{"", "POST", "Unknown", "Create"},
	}
	for _, tt := range tests {
		module, action := parseRouteInfo(tt.path, tt.method)
		assert.Equal(t, tt.module, module, tt.path)
		assert.Equal(t, tt.action, action, tt.path)
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	body := `{"username":"ops","password": "hunter2","old_password":"a","new_password":"b","refresh_token":"r"}`
	masked := maskSensitiveFields(body)

	assert.Contains(t, masked, `"username":"ops"`)
	assert.Contains(t, masked, `"password": "***"`)
	assert.Contains(t, masked, `"old_password":"***"`)
	assert.Contains(t, masked, `"new_password":"***"`)
	assert.Contains(t, masked, `"refresh_token":"***"`)
	assert.NotContains(t, masked, "hunter2")
}

func TestMaskSensitiveFields_NonStringLeftAlone(t *testing.T) {
	body := `{"token":null,"week_ending_date":"2025-01-31"}`
	assert.Equal(t, body, maskSensitiveFields(body))
}

func TestFormatAuditMessage(t *testing.T) {
	assert.Equal(t, "[Audit] ops PUT /api/tenants/1/report-weeks/x -> OK (200)",
		formatAuditMessage("ops", "PUT", "/api/tenants/1/report-weeks/x", 200))
	assert.Equal(t, "[Audit] anonymous POST /api/auth/login -> Failed (401)",
		formatAuditMessage("", "POST", "/api/auth/login", 401))
}
