package integration

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/croche-da-t/server/internal/database"
	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/health"
	"github.com/croche-da-t/server/internal/http/handler"
	"github.com/croche-da-t/server/internal/http/router"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/croche-da-t/server/internal/security"
	"github.com/croche-da-t/server/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPassword  = "Str0ng!pass"
	adminEmail    = "admin@crochedat.com"
	adminPassword = "Adm1n!pass"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Token{}, &domain.Category{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hasher := security.NewPasswordHasher(4)
	if err := database.SeedAdmin(db, hasher, "Admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	jwtMgr := security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	cookies := security.NewCookieSigner("cookie-test-secret", false, 7*24*3600)

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	categories := repository.NewCategoryRepository(db)

	authSvc := service.NewAuthService(users, tokens, hasher, jwtMgr, 10*time.Minute, 7*24*time.Hour)
	tokenSvc := service.NewTokenService(tokens, jwtMgr, 10*time.Minute, 7*24*time.Hour)
	categorySvc := service.NewCategoryService(categories)
	catalog := service.NewCachedCatalogResolver(service.NewInMemoryCatalogCacheStore(), categorySvc, time.Minute)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, tokenSvc, cookies, discard),
		CategoryHandler:  handler.NewCategoryHandler(categorySvc, catalog),
		JWTManager:       jwtMgr,
		Logger:           discard,
		APIRateLimitRPM:  1000,
		AuthRateLimitRPM: 1000,
		Readiness:        health.NewProbeRunner(time.Second, health.NewDatabaseChecker(db)),
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func call(t *testing.T, c *http.Client, method, url, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func drain(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(raw)
}

func registerAndLogin(t *testing.T, c *http.Client, baseURL, email string) {
	t.Helper()
	resp := call(t, c, http.MethodPost, baseURL+"/api/v1/users",
		fmt.Sprintf(`{"name":"Teresa","email":%q,"password":%q}`, email, testPassword))
	if body := drain(t, resp); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}
	resp = call(t, c, http.MethodPost, baseURL+"/api/v1/sessions",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, testPassword))
	if body := drain(t, resp); resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
}

func refreshCookieValue(t *testing.T, c *http.Client, serverURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, serverURL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for _, cookie := range c.Jar.Cookies(req.URL) {
		if cookie.Name == security.RefreshCookieName {
			return cookie.Value
		}
	}
	t.Fatal("no refresh cookie in jar")
	return ""
}
