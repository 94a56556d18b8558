package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var tokens = utils.NewTokenIssuer("test-secret", time.Hour)

// profileBook stands in for the users collection
type profileBook struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
	err      error
}

func (b *profileBook) FindProfile(_ context.Context, id string) (*models.UserProfile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	p, ok := b.profiles[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return &p, nil
}

func (b *profileBook) put(p models.UserProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles[p.ID.Hex()] = p
}

func (b *profileBook) remove(id primitive.ObjectID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.profiles, id.Hex())
}

var profiles = &profileBook{profiles: map[string]models.UserProfile{}}

func profileFor(t *testing.T, role models.UserRole) (models.UserProfile, string) {
	t.Helper()
	user := models.UserProfile{
		ID:    primitive.NewObjectID(),
		Name:  "Ana",
		Email: "ana@ompro.com.br",
		Role:  role,
	}
	profiles.put(user)
	token, err := tokens.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func tokenFor(t *testing.T, role models.UserRole) string {
	t.Helper()
	_, token := profileFor(t, role)
	return token
}

func protectedRouter(resource, action string) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(tokens, profiles))
	r.GET("/x", PermissionMiddleware(resource, action), func(c *gin.Context) {
		user, _ := utils.GetUser(c)
		c.String(http.StatusOK, string(user.Role))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter(utils.ResourceTasks, utils.ActionRead)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_TOKEN")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := utils.NewTokenIssuer("other", time.Hour)
		token, err := other.GenerateToken(models.UserProfile{ID: primitive.NewObjectID(), Role: models.UserRoleManager})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.UserRoleExecutor))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "executor", w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?token="+tokenFor(t, models.UserRoleAdmin), nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("removed user", func(t *testing.T) {
		user, token := profileFor(t, models.UserRoleManager)
		profiles.remove(user.ID)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
	})

	t.Run("role comes from stored profile", func(t *testing.T) {
		user, token := profileFor(t, models.UserRoleManager)
		user.Role = models.UserRoleExecutor
		profiles.put(user)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "executor", w.Body.String())
	})

	t.Run("profile lookup failure", func(t *testing.T) {
		book := &profileBook{err: errors.New("connection reset")}
		broken := gin.New()
		broken.Use(AuthMiddleware(tokens, book))
		broken.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.UserRoleManager))
		broken.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPermissionMiddleware(t *testing.T) {
	cases := []struct {
		role     models.UserRole
		resource string
		action   string
		want     int
	}{
		{models.UserRoleManager, utils.ResourceTasks, utils.ActionImport, http.StatusOK},
		{models.UserRoleAdmin, utils.ResourceTasks, utils.ActionImport, http.StatusForbidden},
		{models.UserRoleExecutor, utils.ResourceTasks, utils.ActionUpdate, http.StatusOK},
		{models.UserRoleExecutor, utils.ResourceReports, utils.ActionExport, http.StatusForbidden},
		{models.UserRoleAdmin, utils.ResourceUsers, utils.ActionCreate, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+tc.resource+"/"+tc.action, func(t *testing.T) {
			r := protectedRouter(tc.resource, tc.action)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, tc.role))
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}

	t.Run("without auth", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", PermissionMiddleware(utils.ResourceTasks, utils.ActionRead), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type logRecorder struct {
	mu   sync.Mutex
	logs []models.OperationLog
	fail int
}

func (r *logRecorder) InsertOperationLog(_ context.Context, log *models.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		return errors.New("insert failed")
	}
	r.logs = append(r.logs, *log)
	return nil
}

func TestOperationLoggerMiddleware(t *testing.T) {
	rec := &logRecorder{}
	r := gin.New()
	r.Use(AuthMiddleware(tokens, profiles), OperationLoggerMiddleware(rec))
	r.POST("/api/users", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	r.DELETE("/api/users/:id", func(c *gin.Context) {
		utils.HandleError(c, utils.CreateNotFoundError("user"))
	})
	r.GET("/api/users", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(method, path, body string) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, models.UserRoleManager))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	send(http.MethodPost, "/api/users", `{"name":"Ana","password":"secret1","nested":{"newPassword":"x"}}`)
	send(http.MethodDelete, "/api/users/abc", "")
	send(http.MethodGet, "/api/users", "")

	require.Len(t, rec.logs, 2)

	created := rec.logs[0]
	assert.Equal(t, http.MethodPost, created.Method)
	assert.Equal(t, http.StatusCreated, created.StatusCode)
	assert.True(t, created.Success)
	assert.Equal(t, "ana@ompro.com.br", created.OperatorEmail)
	assert.Equal(t, "gerente", created.OperatorRole)
	assert.Equal(t, "10.0.0.1", created.IPAddress)
	body := created.RequestBody.(map[string]interface{})
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, "******", body["password"])
	assert.Equal(t, "******", body["nested"].(map[string]interface{})["newPassword"])

	deleted := rec.logs[1]
	assert.False(t, deleted.Success)
	assert.Equal(t, http.StatusNotFound, deleted.StatusCode)
	assert.Equal(t, "user not found", deleted.ErrorMessage)
}

func TestOperationLoggerFallsBackToMinimalLog(t *testing.T) {
	rec := &logRecorder{fail: 1}
	r := gin.New()
	r.Use(OperationLoggerMiddleware(rec))
	r.PUT("/api/tasks/1/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/1/status", strings.NewReader(`{"status":"Done"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, rec.logs, 1)
	assert.Nil(t, rec.logs[0].RequestBody)
	assert.Equal(t, "anonymous", rec.logs[0].OperatorID)
	assert.Contains(t, rec.logs[0].ErrorMessage, "insert failed")
}

func TestOperationLoggerSummarisesUploads(t *testing.T) {
	rec := &logRecorder{}
	r := gin.New()
	r.Use(OperationLoggerMiddleware(rec))
	r.POST("/api/groups/1/import", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/groups/1/import", strings.NewReader("--b--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, rec.logs, 1)
	assert.Equal(t, "multipart", rec.logs[0].RequestBody.(map[string]interface{})["contentType"])
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(utils.CreateValidationError("bad input"))
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "fine", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Logger(), Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://ompro.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://ompro.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://ompro.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
