package rest

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"estoque/internal/auth"
	domain "estoque/internal/errors"
	"estoque/internal/service"
	"estoque/pkg/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageHandler serves the HTML pages: login, registration and dashboard.
type PageHandler struct {
	users     service.UserService
	inventory service.InventoryService
	sessions  *auth.Manager
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewPageHandler creates a new instance of PageHandler.
func NewPageHandler(users service.UserService, inventory service.InventoryService, sessions *auth.Manager, validate *validator.Validate, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		users:     users,
		inventory: inventory,
		sessions:  sessions,
		validate:  validate,
		logger:    logger.With("component", "pages"),
	}
}

// RegisterRoutes registers the page routes. The dashboard sits behind
// the session middleware; everything else is public.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/cadastro", h.RegisterForm)
	r.Post("/cadastro", h.Register)
	r.Get("/logout", h.Logout)
	r.Get("/healthz", h.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage(h.sessions))
		r.Get("/", h.Dashboard)
	})
}

type loginPage struct {
	Error string
	Info  string
}

type cadastroPage struct {
	Error string
}

type dashboardPage struct {
	Usuario       string
	Produtos      []service.ProductDto
	Vendas        []service.SaleDto
	TotalEstoque  int64
	TotalVendidos int64
}

// LoginForm handles GET /login.
func (h *PageHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	page := loginPage{}
	if r.URL.Query().Get("cadastro") == "ok" {
		page.Info = "Cadastro realizado com sucesso! Faça login."
	}
	h.render(w, r, "login.html", page)
}

// Login handles POST /login.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", loginPage{Error: "Requisição inválida."})
		return
	}
	email := r.PostFormValue("email")
	senha := r.PostFormValue("senha")

	user, err := h.users.Authenticate(r.Context(), email, senha)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			mLogger.ErrorContext(r.Context(), "Error authenticating user", "error", err)
		}
		h.render(w, r, "login.html", loginPage{Error: "E-mail ou senha inválidos."})
		return
	}

	if err := h.sessions.Issue(w, user.Nome, user.Email); err != nil {
		mLogger.ErrorContext(r.Context(), "Error issuing session", "error", err)
		h.render(w, r, "login.html", loginPage{Error: "Não foi possível iniciar a sessão."})
		return
	}
	mLogger.InfoContext(r.Context(), "User logged in", "email", user.Email)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterForm handles GET /cadastro.
func (h *PageHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "cadastro.html", cadastroPage{})
}

// Register handles POST /cadastro.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "cadastro.html", cadastroPage{Error: "Requisição inválida."})
		return
	}
	dto := service.UserCreateDto{
		Nome:  r.PostFormValue("nome"),
		Email: r.PostFormValue("email"),
		CPF:   r.PostFormValue("cpf"),
		Senha: r.PostFormValue("senha"),
	}

	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		msg := "Preencha todos os campos corretamente."
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				if fieldErr.Field() == "CPF" {
					msg = "CPF inválido. Use o formato 000.000.000-00."
					break
				}
			}
		}
		h.render(w, r, "cadastro.html", cadastroPage{Error: msg})
		return
	}

	if _, err := h.users.Register(r.Context(), dto); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			h.render(w, r, "cadastro.html", cadastroPage{Error: "E-mail já cadastrado."})
		case errors.Is(err, domain.ErrCPFTaken):
			h.render(w, r, "cadastro.html", cadastroPage{Error: "CPF já cadastrado."})
		default:
			mLogger.ErrorContext(r.Context(), "Error registering user", "error", err)
			h.render(w, r, "cadastro.html", cadastroPage{Error: "Não foi possível concluir o cadastro."})
		}
		return
	}
	mLogger.InfoContext(r.Context(), "User registered", "email", dto.Email)
	http.Redirect(w, r, "/login?cadastro=ok", http.StatusFound)
}

// Logout handles GET /logout.
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Dashboard handles GET /. The session middleware guarantees claims are
// present.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	claims, _ := auth.SessionFrom(r.Context())

	produtos, err := h.inventory.ListProducts(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing products", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	vendas, err := h.inventory.ListSales(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing sales", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	totalEstoque, err := h.inventory.TotalInStock(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error computing stock total", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	totalVendidos, err := h.inventory.TotalSold(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error computing sold total", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "index.html", dashboardPage{
		Usuario:       claims.Nome,
		Produtos:      produtos,
		Vendas:        vendas,
		TotalEstoque:  totalEstoque,
		TotalVendidos: totalVendidos,
	})
}

// HealthCheck is a simple health check endpoint.
func (h *PageHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.loggerWithReqID(r).ErrorContext(r.Context(), "Error rendering template", "template", name, "error", err)
	}
}

func (h *PageHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
