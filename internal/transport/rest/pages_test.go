package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"estoque/internal/auth"
	domain "estoque/internal/errors"
	"estoque/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserService is a mock implementation of the UserService interface
type mockUserService struct {
	user  service.UserDto
	error error
}

func (m *mockUserService) Register(_ context.Context, user service.UserCreateDto) (*service.UserDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &service.UserDto{ID: 1, Nome: user.Nome, Email: user.Email}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, _, _ string) (*service.UserDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.user, nil
}

func newPageRouter(users service.UserService, inventory service.InventoryService, sessions *auth.Manager) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewPageHandler(users, inventory, sessions, NewValidate(), logger).RegisterRoutes(r)
	return r
}

func newSessions() *auth.Manager {
	return auth.NewManager("test-secret", "estoque_sessao", time.Hour)
}

func postForm(t *testing.T, router http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func Test_Pages_Login(t *testing.T) {
	testCases := []struct {
		name           string
		mockUsers      *mockUserService
		form           url.Values
		expectStatus   int
		expectLocation string
		expectBody     string
	}{
		{
			name:           "Success - redirects to dashboard and sets cookie",
			mockUsers:      &mockUserService{user: service.UserDto{ID: 1, Nome: "Maria", Email: "maria@example.com"}},
			form:           url.Values{"email": {"maria@example.com"}, "senha": {"segredo"}},
			expectStatus:   http.StatusFound,
			expectLocation: "/",
		},
		{
			name:         "Error - invalid credentials re-render the form",
			mockUsers:    &mockUserService{error: domain.ErrInvalidCredentials},
			form:         url.Values{"email": {"maria@example.com"}, "senha": {"errada"}},
			expectStatus: http.StatusOK,
			expectBody:   "E-mail ou senha inválidos.",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newPageRouter(tc.mockUsers, &mockInventoryService{}, newSessions())

			// when
			rr := postForm(t, router, "/login", tc.form)

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
			if tc.expectLocation != "" {
				assert.Equal(t, tc.expectLocation, rr.Header().Get("Location"))
				require.NotEmpty(t, rr.Result().Cookies())
				assert.Equal(t, "estoque_sessao", rr.Result().Cookies()[0].Name)
			}
			if tc.expectBody != "" {
				assert.Contains(t, rr.Body.String(), tc.expectBody)
			}
		})
	}
}

func Test_Pages_LoginForm_ShowsRegistrationNotice(t *testing.T) {
	router := newPageRouter(&mockUserService{}, &mockInventoryService{}, newSessions())

	req := httptest.NewRequest(http.MethodGet, "/login?cadastro=ok", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cadastro realizado com sucesso!")
}

func Test_Pages_Register(t *testing.T) {
	validForm := url.Values{
		"nome":  {"Maria"},
		"email": {"maria@example.com"},
		"cpf":   {"123.456.789-00"},
		"senha": {"segredo"},
	}
	withCPF := func(cpf string) url.Values {
		form := url.Values{}
		for k, v := range validForm {
			form[k] = v
		}
		form.Set("cpf", cpf)
		return form
	}

	testCases := []struct {
		name           string
		mockUsers      *mockUserService
		form           url.Values
		expectStatus   int
		expectLocation string
		expectBody     string
	}{
		{
			name:           "Success - redirects to login with notice",
			mockUsers:      &mockUserService{},
			form:           validForm,
			expectStatus:   http.StatusFound,
			expectLocation: "/login?cadastro=ok",
		},
		{
			name:         "Error - malformed CPF",
			mockUsers:    &mockUserService{},
			form:         withCPF("12345678900"),
			expectStatus: http.StatusOK,
			expectBody:   "CPF inválido. Use o formato 000.000.000-00.",
		},
		{
			name:         "Error - email already registered",
			mockUsers:    &mockUserService{error: domain.ErrEmailTaken},
			form:         validForm,
			expectStatus: http.StatusOK,
			expectBody:   "E-mail já cadastrado.",
		},
		{
			name:         "Error - CPF already registered",
			mockUsers:    &mockUserService{error: domain.ErrCPFTaken},
			form:         validForm,
			expectStatus: http.StatusOK,
			expectBody:   "CPF já cadastrado.",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newPageRouter(tc.mockUsers, &mockInventoryService{}, newSessions())

			// when
			rr := postForm(t, router, "/cadastro", tc.form)

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
			if tc.expectLocation != "" {
				assert.Equal(t, tc.expectLocation, rr.Header().Get("Location"))
			}
			if tc.expectBody != "" {
				assert.Contains(t, rr.Body.String(), tc.expectBody)
			}
		})
	}
}

func Test_Pages_Dashboard(t *testing.T) {
	sessions := newSessions()
	inventory := &mockInventoryService{
		products: []service.ProductDto{{ID: 1, Nome: "Widget", Quantidade: 7, Preco: 2.50}},
		sales:    []service.SaleDto{{ID: 1, ProdutoNome: "Widget", Quantidade: 3, Total: 7.50}},
		total:    7,
	}
	router := newPageRouter(&mockUserService{}, inventory, sessions)

	t.Run("redirects to login without a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("renders inventory for an authenticated user", func(t *testing.T) {
		// given: a cookie minted by the session manager
		seed := httptest.NewRecorder()
		require.NoError(t, sessions.Issue(seed, "Maria", "maria@example.com"))
		cookie := seed.Result().Cookies()[0]

		// when
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// then
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Maria")
		assert.Contains(t, rr.Body.String(), "Widget")
	})
}

func Test_Pages_Logout_ClearsSession(t *testing.T) {
	router := newPageRouter(&mockUserService{}, &mockInventoryService{}, newSessions())

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	require.NotEmpty(t, rr.Result().Cookies())
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func Test_Pages_HealthCheck(t *testing.T) {
	router := newPageRouter(&mockUserService{}, &mockInventoryService{}, newSessions())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
