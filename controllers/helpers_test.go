package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/capitalpay/capitalpay-api/config"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/routes"
	"github.com/capitalpay/capitalpay-api/utils"
)

// apiResponse mirrors the wire envelope for assertions.
type apiResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Count      *int              `json:"count"`
	Pagination *utils.Pagination `json:"pagination"`
	Data       json.RawMessage   `json:"data"`
}

// newTestEnv wires a full router against a fresh in-memory database. Redis
// points at an unused port so cache and cooldown paths fall through.
func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	config.SetForTesting(config.AppConfig{
		AppPort:               "0",
		Environment:           "development",
		JWTSecret:             "unit-test-secret",
		JWTExpireHours:        1,
		RateLimitPerWindow:    100000,
		RateLimitWindowMinute: 15,
		AllowedOrigins:        []string{"*"},
		ContactCooldownSec:    0,
		GinMode:               "test",
		GinPath:               filepath.Join(t.TempDir(), "gin.log"),
		RedisHost:             "127.0.0.1",
		RedisPort:             6399,
		LogLevel:              "error",
	})
	require.NoError(t, utils.InitLogger(config.Get()))

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.BlogPost{}, &models.ContactMessage{}, &models.ContactNote{}))

	return routes.SetupRouter(db), db
}

// seedUser inserts an active user and returns it with a valid bearer token.
func seedUser(t *testing.T, db *gorm.DB, name, email, role string) (models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)

	user := models.User{Name: name, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return user, token
}

func seedPublishedPost(t *testing.T, db *gorm.DB, authorID uint, title string) models.BlogPost {
	t.Helper()
	now := time.Now()
	post := models.BlogPost{
		Title:       title,
		Slug:        models.DeriveSlug(title),
		Excerpt:     "excerpt for " + title,
		Content:     "content for " + title,
		Category:    models.CategoryFinance,
		AuthorID:    authorID,
		Status:      models.PostStatusPublished,
		ReadTime:    1,
		PublishedAt: &now,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func doJSON(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) apiResponse {
	t.Helper()
	resp := decode(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, out), "data: %s", string(resp.Data))
	return resp
}
