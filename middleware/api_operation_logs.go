package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// OperationLogWriter persists audit records
type OperationLogWriter interface {
	InsertOperationLog(ctx context.Context, log *models.OperationLog) error
}

// methods that mutate state
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

var excludedPaths = map[string]bool{
	"/api/health":     true,
	"/api/db-status":  true,
	"/api/auth/login": true,
}

const operationLogTimeout = 5 * time.Second

// bodyLogWriter copies the response body while writing it
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// OperationLoggerMiddleware records every mutating API call
func OperationLoggerMiddleware(writer OperationLogWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if writer == nil || !shouldLogOperation(c) {
			c.Next()
			return
		}

		startTime := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		requestBody := readRequestBody(c)

		c.Next()

		status := c.Writer.Status()
		operationLog := models.OperationLog{
			Method:        method,
			Path:          path,
			OperatorID:    "anonymous",
			RequestBody:   sanitizeData(requestBody),
			StatusCode:    status,
			Success:       status < http.StatusBadRequest,
			ErrorMessage:  extractErrorMessage(c, blw.body.Bytes()),
			OperationTime: startTime,
			ResponseTime:  time.Since(startTime).Milliseconds(),
			IPAddress:     getClientIP(c),
			UserAgent:     c.Request.UserAgent(),
		}
		if user, err := utils.GetUser(c); err == nil {
			operationLog.OperatorID = user.ID
			operationLog.OperatorEmail = user.Email
			operationLog.OperatorRole = string(user.Role)
		}

		ctx, cancel := context.WithTimeout(context.Background(), operationLogTimeout)
		defer cancel()
		if err := writer.InsertOperationLog(ctx, &operationLog); err != nil {
			utils.Logger.Error().Err(err).Str("path", path).Msg("failed to save operation log")

			minimal := operationLog
			minimal.RequestBody = nil
			minimal.ErrorMessage = fmt.Sprintf("detailed log rejected: %v", err)
			if saveErr := writer.InsertOperationLog(ctx, &minimal); saveErr != nil {
				utils.Logger.Error().Err(saveErr).Msg("failed to save minimal operation log")
			}
		}

		utils.Logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Str("operator", operationLog.OperatorEmail).
			Int64("responseTime", operationLog.ResponseTime).
			Msg("operation logged")
	}
}

func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

// readRequestBody reads and restores the JSON body; uploads are summarised
func readRequestBody(c *gin.Context) interface{} {
	if c.Request.Body == nil {
		return nil
	}
	contentType := c.Request.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		return map[string]interface{}{"contentType": "multipart", "contentLength": c.Request.ContentLength}
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.Logger.Warn().Err(err).Msg("failed to read request body")
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if len(raw) == 0 {
		return nil
	}

	var body interface{}
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(raw, &body); err == nil {
			return body
		}
	}
	return string(raw)
}

// extractErrorMessage picks the error of a failed call from the gin errors or the response envelope
func extractErrorMessage(c *gin.Context, response []byte) string {
	if len(c.Errors) > 0 {
		return c.Errors.String()
	}
	if c.Writer.Status() < http.StatusBadRequest || len(response) == 0 {
		return ""
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(response, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// sanitizeData masks credentials anywhere in a decoded JSON value
func sanitizeData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(v))
		for k, item := range v {
			if isSensitiveKey(k) {
				sanitized[k] = "******"
				continue
			}
			sanitized[k] = sanitizeData(item)
		}
		return sanitized
	case []interface{}:
		sanitized := make([]interface{}, len(v))
		for i, item := range v {
			sanitized[i] = sanitizeData(item)
		}
		return sanitized
	}
	return data
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	switch key {
	case "token", "authorization", "secret", "key":
		return true
	}
	return strings.Contains(key, "password")
}

// getClientIP prefers proxy headers over the socket address
func getClientIP(c *gin.Context) string {
	if ip := c.Request.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := c.Request.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
