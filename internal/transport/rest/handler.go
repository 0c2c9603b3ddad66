// Package rest provides the HTTP handlers for the inventory API and the
// HTML pages around it.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	domain "estoque/internal/errors"
	"estoque/internal/service"
	"estoque/pkg/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var cpfPattern = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)

// NewValidate builds the validator instance with the custom cpf rule
// (format 000.000.000-00).
func NewValidate() *validator.Validate {
	v := validator.New()
	// The tag is registered at construction, so failure is a programming error.
	if err := v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register cpf validation: %v", err))
	}
	return v
}

// Handler serves the JSON API consumed by the dashboard.
type Handler struct {
	service  service.InventoryService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the API handler with the provided service.
func NewHandler(service service.InventoryService, validate *validator.Validate, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the JSON API routes. The caller is expected
// to mount them behind the session middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/produtos", h.AddProduct)
	r.Put("/api/produtos/{id}", h.EditProduct)
	r.Delete("/api/produtos/{id}", h.RemoveProduct)
	r.Post("/api/vendas", h.RegisterSale)
	r.Get("/api/buscar", h.Search)
}

// productRequest is the wire form of a product create/edit call. The
// forcar flag overrides the duplicate-name gate.
type productRequest struct {
	service.ProductCreateDto
	Forcar bool `json:"forcar"`
}

// AddProduct handles POST /api/produtos.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if msg, ok := h.validateStruct(r, mLogger, req.ProductCreateDto); !ok {
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	created, err := h.service.AddProduct(r.Context(), req.ProductCreateDto, req.Forcar)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			mLogger.InfoContext(r.Context(), "Duplicate product name", "nome", req.Nome)
			web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"success": false, "duplicate": true})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Não foi possível cadastrar o produto")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "ID", created.ID, "nome", created.Nome)
	web.RespondJSON(w, mLogger, http.StatusCreated, map[string]any{"success": true})
}

// EditProduct handles PUT /api/produtos/{id}.
func (h *Handler) EditProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if msg, ok := h.validateStruct(r, mLogger, req.ProductCreateDto); !ok {
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	if err := h.service.EditProduct(r.Context(), id, req.ProductCreateDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Não foi possível editar o produto")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"success": true})
}

// RemoveProduct handles DELETE /api/produtos/{id}.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.RemoveProduct(r.Context(), id); err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Não foi possível remover o produto")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"success": true})
}

// RegisterSale handles POST /api/vendas. A missing product and
// insufficient stock share one user-facing message; the log keeps the
// precise reason.
func (h *Handler) RegisterSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req service.SaleCreateDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if msg, ok := h.validateStruct(r, mLogger, req); !ok {
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	sale, err := h.service.RegisterSale(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Sale rejected", "produto_id", req.ProdutoID, "quantidade", req.Quantidade, "reason", err)
			web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"success": false, "message": "Estoque insuficiente"})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error registering sale", "produto_id", req.ProdutoID, "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Não foi possível registrar a venda")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale registered", "ID", sale.ID, "produto_id", sale.ProdutoID, "total", sale.Total)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"success": true, "message": "Venda registrada"})
}

// Search handles GET /api/buscar?termo=. An empty term yields an empty
// list, never an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	termo := r.URL.Query().Get("termo")
	products, err := h.service.SearchProducts(r.Context(), termo)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching products", "termo", termo, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Não foi possível buscar produtos")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// validateStruct runs the validator and flattens field errors into one
// message.
func (h *Handler) validateStruct(r *http.Request, mLogger *slog.Logger, v any) (string, bool) {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
			}
			msg := "Campos inválidos: " + strings.Join(fields, ", ")
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", msg)
			return msg, false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		return "Corpo da requisição inválido", false
	}
	return "", true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
