package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	apihttp "github.com/artem13815/accounts/api/http"
	"github.com/artem13815/accounts/api/http/handlers"
	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/auth"
	"github.com/artem13815/accounts/pkg/health"
	"github.com/artem13815/accounts/pkg/metrics"
	"github.com/artem13815/accounts/pkg/repository/memory"
	"github.com/artem13815/accounts/pkg/security/jwt"
	"github.com/artem13815/accounts/pkg/security/password"
	"github.com/artem13815/accounts/pkg/users"
)

var auditDay = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type RouterSuite struct {
	suite.Suite
	app *fiber.App
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.app = newApp(auth.Config{})
}

func newApp(cfg auth.Config) *fiber.App {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	userRepo := memory.NewUserRepository()
	auditRepo := memory.NewAuditRepository(
		audit.RetentionPolicy{MaxBytes: audit.DefaultMaxBytes},
		memory.WithAuditClock(audit.NewClock(func() time.Time { return auditDay })),
		memory.WithAuditMetrics(m),
	)
	tokens := jwt.NewGenerator("router-secret", "accounts", time.Hour)
	authUC := auth.NewAuthService(userRepo, password.NewBcrypt(bcrypt.MinCost), tokens, auditRepo, cfg, auth.WithMetrics(m))

	app := fiber.New()
	apihttp.Register(app, apihttp.Handlers{
		Auth:        handlers.NewAuthHandler(authUC),
		Users:       handlers.NewUsersHandler(users.NewService(userRepo)),
		Audit:       handlers.NewAuditHandler(audit.NewService(auditRepo)),
		Health:      handlers.NewHealthHandler(health.NewService()),
		RequireAuth: jwt.NewAuthMiddleware(tokens),
		Metrics:     reg,
	})
	return app
}

func (s *RouterSuite) do(method, path, token string, body any) (int, map[string]any) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func creds(email, pw string) map[string]string {
	return map[string]string{"email": email, "password": pw}
}

func (s *RouterSuite) login(email, pw string) string {
	status, body := s.do(http.MethodPost, "/api/v1/auth/login", "", creds(email, pw))
	s.Require().Equal(http.StatusOK, status, body)
	return body["access_token"].(string)
}

func (s *RouterSuite) TestRegisterAndLogin() {
	status, body := s.do(http.MethodPost, "/api/v1/auth/register", "", creds("a@example.com", "pw"))
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	s.Equal("a@example.com", user["email"])
	s.NotEmpty(user["id"])
	s.NotContains(user, "passwordHash")

	status, body = s.do(http.MethodPost, "/api/v1/auth/register", "", creds("a@example.com", "pw"))
	s.Equal(http.StatusConflict, status)
	s.Equal("Email already exists", body["message"])

	status, body = s.do(http.MethodPost, "/api/v1/auth/login", "", creds("a@example.com", "pw"))
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Bearer", body["token_type"])
	s.NotEmpty(body["access_token"])
	s.NotEmpty(body["expires_at"])

	status, body = s.do(http.MethodPost, "/api/v1/auth/login", "", creds("a@example.com", "nope"))
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("Invalid email or password", body["message"])
}

func (s *RouterSuite) TestBadRequests() {
	status, body := s.do(http.MethodPost, "/api/v1/auth/register", "", creds("not-an-email", "pw"))
	s.Equal(http.StatusBadRequest, status)
	s.Equal("Invalid email format", body["message"])

	status, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", creds("", ""))
	s.Equal(http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *RouterSuite) TestCapacityIsServiceUnavailable() {
	s.app = newApp(auth.Config{MaxStorageBytes: 1})
	s.do(http.MethodPost, "/api/v1/auth/register", "", creds("first@example.com", "pw"))

	status, body := s.do(http.MethodPost, "/api/v1/auth/register", "", creds("second@example.com", "pw"))
	s.Equal(http.StatusServiceUnavailable, status)
	s.Equal("Error registering user: Database full.", body["message"])
}

func (s *RouterSuite) TestListingRequiresToken() {
	for _, path := range []string{"/api/v1/auth/users", "/api/v1/auth/logs"} {
		status, _ := s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, status, path)

		status, _ = s.do(http.MethodGet, path, "garbage", nil)
		s.Equal(http.StatusUnauthorized, status, path)
	}
}

func (s *RouterSuite) TestListUsers() {
	for _, email := range []string{"ann@example.com", "bob@example.com", "ANNA@corp.io"} {
		status, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", creds(email, "pw"))
		s.Require().Equal(http.StatusCreated, status)
	}
	token := s.login("bob@example.com", "pw")

	status, body := s.do(http.MethodGet, "/api/v1/auth/users", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(3.0, body["total"])
	s.Equal(1.0, body["page"])
	s.Equal(10.0, body["limit"])

	status, body = s.do(http.MethodGet, "/api/v1/auth/users?email=ann&limit=1&page=2", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(2.0, body["total"])
	list := body["users"].([]any)
	s.Require().Len(list, 1)
	s.Equal("ANNA@corp.io", list[0].(map[string]any)["email"])

	status, _ = s.do(http.MethodGet, "/api/v1/auth/users?page=0", token, nil)
	s.Equal(http.StatusBadRequest, status)
	status, _ = s.do(http.MethodGet, "/api/v1/auth/users?limit=abc", token, nil)
	s.Equal(http.StatusBadRequest, status)

	status, body = s.do(http.MethodGet, "/api/v1/auth/users?limit=500", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(100.0, body["limit"], "applied limit is echoed")

	status, body = s.do(http.MethodGet, "/api/v1/auth/users?page=922337203685477582", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(3.0, body["total"])
	s.Empty(body["users"])
}

func (s *RouterSuite) TestListLogs() {
	s.do(http.MethodPost, "/api/v1/auth/register", "", creds("a@example.com", "pw"))
	token := s.login("a@example.com", "pw")

	status, body := s.do(http.MethodGet, "/api/v1/auth/logs", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(2.0, body["count"])
	data := body["data"].([]any)
	s.Require().Len(data, 2)
	s.Equal(audit.EventLogin, data[0].(map[string]any)["event"])
	s.Equal(audit.EventRegistration, data[1].(map[string]any)["event"])

	status, body = s.do(http.MethodGet, "/api/v1/auth/logs?from=2024-03-10&to=2024-03-10", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(2.0, body["count"])

	status, body = s.do(http.MethodGet, "/api/v1/auth/logs?to=2024-03-09", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0.0, body["count"])
	s.Empty(body["data"])

	status, body = s.do(http.MethodGet, "/api/v1/auth/logs?email=nobody", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0.0, body["count"])

	status, body = s.do(http.MethodGet, "/api/v1/auth/logs?limit=500", token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(100.0, body["limit"])

	status, _ = s.do(http.MethodGet, "/api/v1/auth/logs?from=yesterday", token, nil)
	s.Equal(http.StatusBadRequest, status)
	status, _ = s.do(http.MethodGet, "/api/v1/auth/logs?from=2024-03-11&to=2024-03-10", token, nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *RouterSuite) TestProbesAndMetrics() {
	status, body := s.do(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("ok", body["status"])

	status, body = s.do(http.MethodGet, "/api/v1/ready", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("ready", body["status"])

	s.do(http.MethodPost, "/api/v1/auth/register", "", creds("m@example.com", "pw"))
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(raw), `accounts_registrations_total{outcome="success"} 1`)
}
