package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "estoque/internal/errors"
	"estoque/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInventoryService is a mock implementation of the InventoryService interface
type mockInventoryService struct {
	product  service.ProductDto
	products []service.ProductDto
	sale     service.SaleDto
	sales    []service.SaleDto
	total    int64
	error    error
}

func (m *mockInventoryService) AddProduct(_ context.Context, product service.ProductCreateDto, _ bool) (*service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &service.ProductDto{ID: m.product.ID, Nome: product.Nome}, nil
}

func (m *mockInventoryService) EditProduct(_ context.Context, _ int64, _ service.ProductCreateDto) error {
	return m.error
}

func (m *mockInventoryService) RemoveProduct(_ context.Context, _ int64) error {
	return m.error
}

func (m *mockInventoryService) ListProducts(_ context.Context) ([]service.ProductDto, error) {
	return m.products, m.error
}

func (m *mockInventoryService) FindProduct(_ context.Context, _ int64) (*service.ProductDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockInventoryService) SearchProducts(_ context.Context, term string) ([]service.ProductDto, error) {
	if strings.TrimSpace(term) == "" {
		return []service.ProductDto{}, nil
	}
	return m.products, m.error
}

func (m *mockInventoryService) RegisterSale(_ context.Context, _ service.SaleCreateDto) (*service.SaleDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.sale, nil
}

func (m *mockInventoryService) ListSales(_ context.Context) ([]service.SaleDto, error) {
	return m.sales, m.error
}

func (m *mockInventoryService) TotalSold(_ context.Context) (int64, error) {
	return m.total, m.error
}

func (m *mockInventoryService) TotalInStock(_ context.Context) (int64, error) {
	return m.total, m.error
}

// newTestRouter mounts the API handler on a bare router, without the
// session middleware.
func newTestRouter(svc service.InventoryService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(svc, NewValidate(), logger).RegisterRoutes(r)
	return r
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func Test_Handler_AddProduct(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockInventoryService
		body         string
		expectStatus int
		expectBody   string
	}{
		{
			name:         "Success - product created",
			mockService:  &mockInventoryService{product: service.ProductDto{ID: 1}},
			body:         `{"nome":"Widget","descricao":"","quantidade":10,"preco":2.5}`,
			expectStatus: http.StatusCreated,
			expectBody:   `{"success":true}`,
		},
		{
			name:         "Duplicate - reported as success=false with duplicate flag",
			mockService:  &mockInventoryService{error: domain.ErrDuplicateName},
			body:         `{"nome":"Widget","quantidade":1,"preco":1}`,
			expectStatus: http.StatusOK,
			expectBody:   `{"duplicate":true,"success":false}`,
		},
		{
			name:         "Error - missing name fails validation",
			mockService:  &mockInventoryService{},
			body:         `{"quantidade":1,"preco":1}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Error - negative quantity fails validation",
			mockService:  &mockInventoryService{},
			body:         `{"nome":"Widget","quantidade":-1,"preco":1}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Error - malformed JSON",
			mockService:  &mockInventoryService{},
			body:         `{"nome":`,
			expectStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.mockService)

			// when
			rr := do(t, router, http.MethodPost, "/api/produtos", tc.body)

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
			if tc.expectBody != "" {
				assert.JSONEq(t, tc.expectBody, rr.Body.String())
			}
		})
	}
}

func Test_Handler_AddProduct_ForceBypassesDuplicateGate(t *testing.T) {
	// given
	var gotForce bool
	svc := &forceRecordingService{force: &gotForce}
	router := newTestRouter(svc)

	// when
	rr := do(t, router, http.MethodPost, "/api/produtos", `{"nome":"Widget","quantidade":1,"preco":1,"forcar":true}`)

	// then
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, gotForce)
}

// forceRecordingService captures the force flag passed to AddProduct.
type forceRecordingService struct {
	mockInventoryService
	force *bool
}

func (s *forceRecordingService) AddProduct(_ context.Context, product service.ProductCreateDto, force bool) (*service.ProductDto, error) {
	*s.force = force
	return &service.ProductDto{ID: 1, Nome: product.Nome}, nil
}

func Test_Handler_EditProduct(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockInventoryService
		target       string
		body         string
		expectStatus int
	}{
		{
			name:         "Success - product updated",
			mockService:  &mockInventoryService{},
			target:       "/api/produtos/1",
			body:         `{"nome":"Widget","quantidade":5,"preco":3}`,
			expectStatus: http.StatusOK,
		},
		{
			name:         "Error - non-numeric ID",
			mockService:  &mockInventoryService{},
			target:       "/api/produtos/abc",
			body:         `{"nome":"Widget","quantidade":5,"preco":3}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Error - service failure",
			mockService:  &mockInventoryService{error: errors.New("boom")},
			target:       "/api/produtos/1",
			body:         `{"nome":"Widget","quantidade":5,"preco":3}`,
			expectStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.mockService)

			// when
			rr := do(t, router, http.MethodPut, tc.target, tc.body)

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
		})
	}
}

func Test_Handler_RemoveProduct(t *testing.T) {
	// given
	router := newTestRouter(&mockInventoryService{})

	// when
	rr := do(t, router, http.MethodDelete, "/api/produtos/7", "")

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func Test_Handler_RegisterSale(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockInventoryService
		body         string
		expectStatus int
		expectBody   string
	}{
		{
			name: "Success - sale registered",
			mockService: &mockInventoryService{
				sale: service.SaleDto{ID: 1, ProdutoID: 5, Quantidade: 3, Total: 7.50},
			},
			body:         `{"produto_id":5,"quantidade":3}`,
			expectStatus: http.StatusOK,
			expectBody:   `{"success":true,"message":"Venda registrada"}`,
		},
		{
			name:         "Rejected - insufficient stock",
			mockService:  &mockInventoryService{error: domain.ErrInsufficientStock},
			body:         `{"produto_id":5,"quantidade":1000}`,
			expectStatus: http.StatusOK,
			expectBody:   `{"success":false,"message":"Estoque insuficiente"}`,
		},
		{
			name:         "Rejected - unknown product shares the same message",
			mockService:  &mockInventoryService{error: domain.ErrProductNotFound},
			body:         `{"produto_id":999,"quantidade":1}`,
			expectStatus: http.StatusOK,
			expectBody:   `{"success":false,"message":"Estoque insuficiente"}`,
		},
		{
			name:         "Error - zero quantity fails validation",
			mockService:  &mockInventoryService{},
			body:         `{"produto_id":5,"quantidade":0}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Error - negative quantity fails validation",
			mockService:  &mockInventoryService{},
			body:         `{"produto_id":5,"quantidade":-2}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Error - missing product ID fails validation",
			mockService:  &mockInventoryService{},
			body:         `{"quantidade":1}`,
			expectStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.mockService)

			// when
			rr := do(t, router, http.MethodPost, "/api/vendas", tc.body)

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
			if tc.expectBody != "" {
				assert.JSONEq(t, tc.expectBody, rr.Body.String())
			}
		})
	}
}

func Test_Handler_Search(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockInventoryService
		target       string
		expectStatus int
		expectBody   string
	}{
		{
			name: "Success - matches returned",
			mockService: &mockInventoryService{
				products: []service.ProductDto{{ID: 1, Nome: "Martelo", Quantidade: 3, Preco: 30}},
			},
			target:       "/api/buscar?termo=mar",
			expectStatus: http.StatusOK,
			expectBody:   `[{"id":1,"nome":"Martelo","descricao":"","quantidade":3,"preco":30}]`,
		},
		{
			name:         "Success - empty term yields empty list",
			mockService:  &mockInventoryService{},
			target:       "/api/buscar",
			expectStatus: http.StatusOK,
			expectBody:   `[]`,
		},
		{
			name:         "Error - service failure",
			mockService:  &mockInventoryService{error: errors.New("boom")},
			target:       "/api/buscar?termo=mar",
			expectStatus: http.StatusInternalServerError,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.mockService)

			// when
			rr := do(t, router, http.MethodGet, tc.target, "")

			// then
			assert.Equal(t, tc.expectStatus, rr.Code)
			if tc.expectBody != "" {
				assert.JSONEq(t, tc.expectBody, rr.Body.String())
			}
		})
	}
}

func Test_NewValidate_CPFRule(t *testing.T) {
	v := NewValidate()
	type subject struct {
		CPF string `validate:"cpf"`
	}

	require.NoError(t, v.Struct(subject{CPF: "123.456.789-00"}))
	assert.Error(t, v.Struct(subject{CPF: "12345678900"}))
	assert.Error(t, v.Struct(subject{CPF: "123.456.789-0"}))
	assert.Error(t, v.Struct(subject{CPF: "abc.def.ghi-jk"}))
}
