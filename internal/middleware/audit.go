package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/services"
)

const maxAuditBody = 2000

// AuditLog records write operations (POST/PUT/PATCH/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			body = string(raw)
			if len(body) > maxAuditBody {
				body = body[:maxAuditBody] + "...[truncated]"
			}
			body = maskSensitiveFields(body)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		entry := services.AuditEntry{
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
				"audit":  true,
			},
		}
		if uid := GetUserID(c); uid > 0 {
			entry.UserID = &uid
		}
		if tid := ScopeTenantID(c); tid > 0 {
			entry.TenantID = &tid
		}

		if status >= 500 {
			services.LogError(entry)
			return
		}
		services.LogInfo(entry)
	}
}

// parseRouteInfo maps a route pattern to a module and action.
// "/api/tenants/:tenant_id/report-weeks/:id" + PUT gives ("Report Weeks", "Update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	var segments []string
	for _, s := range strings.Split(strings.TrimPrefix(fullPath, "/api/"), "/") {
		if s != "" && !strings.HasPrefix(s, ":") {
			segments = append(segments, s)
		}
	}

	switch {
	case len(segments) == 0:
		module = "unknown"
	case segments[0] == "tenants" && len(segments) > 1:
		module = segments[1]
	default:
		module = segments[0]
	}
	module = titleWords(strings.ReplaceAll(module, "-", " "))

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatAuditMessage(username, method, path string, status int) string {
	outcome := "Failed"
	if status >= 200 && status < 300 {
		outcome = "OK"
	}
	if username == "" {
		username = "anonymous"
	}
	return fmt.Sprintf("[Audit] %s %s %s -> %s (%d)", username, method, path, outcome, status)
}

// maskSensitiveFields replaces sensitive values in a JSON body.
func maskSensitiveFields(body string) string {
	for _, key := range []string{"password", "old_password", "new_password", "refresh_token", "token", "secret"} {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue does a best-effort mask of every string value for key.
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	from := 0
	for {
		idx := strings.Index(strings.ToLower(body[from:]), needle)
		if idx == -1 {
			return body
		}
		pos := from + idx + len(needle)

		colon := strings.Index(body[pos:], ":")
		if colon == -1 {
			return body
		}
		start := pos + colon + 1
		for start < len(body) && (body[start] == ' ' || body[start] == '\t') {
			start++
		}
		if start >= len(body) || body[start] != '"' {
			from = pos
			continue
		}
		end := strings.Index(body[start+1:], "\"")
		if end == -1 {
			return body
		}
		body = body[:start+1] + "***" + body[start+1+end:]
		from = start + 5
	}
}
