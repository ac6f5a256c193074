package httpx

import (
	"log/slog"
	"net/http"

	"github.com/atlastours/agency-api/internal/core"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	"github.com/atlastours/agency-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthServiceInterface
	Catalog  *service.CatalogService
	Bookings *service.BookingService
	// Readiness dependencies (optional)
	DB    Pinger
	Cache core.CacheRepository
	// Configuration
	CookieDomain string
	SSOEnabled   bool         // registers the SSO begin/callback routes
	Logger       *slog.Logger // Logger for middleware and handler warnings (optional)
}

// NewRouter creates and configures a new HTTP router with logging and panic
// recovery applied around the whole mux.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalogHandlers := &CatalogHandlers{Svc: services.Catalog}
	bookingHandlers := &BookingHandlers{Svc: services.Bookings}
	adminHandlers := &AdminHandlers{Catalog: services.Catalog, Bookings: services.Bookings}
	var authHandlers *AuthHandlers
	if services.Auth != nil {
		authHandlers = &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}
	}

	registerCatalogRoutes(mux, catalogHandlers)
	registerBookingRoutes(mux, bookingHandlers)
	if authHandlers != nil {
		registerAuthRoutes(mux, authHandlers, services.SSOEnabled)
		registerAdminRoutes(mux, adminHandlers, services.Auth)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	readyHandlers := &ReadyHandlers{DB: services.DB, Cache: services.Cache}
	mux.Handle("GET /readyz", http.HandlerFunc(readyHandlers.Ready))

	return Recover(logger)(Logging(logger)(mux))
}

func registerCatalogRoutes(mux *http.ServeMux, h *CatalogHandlers) {
	mux.HandleFunc("GET /api/catalog", h.ListCollections)
	mux.HandleFunc("GET /api/catalog/{collection}", h.GetCollection)
}

func registerBookingRoutes(mux *http.ServeMux, h *BookingHandlers) {
	mux.HandleFunc("POST /api/bookings", h.Create)
	mux.HandleFunc("GET /api/bookings/{reference}", h.GetByReference)
	mux.HandleFunc("POST /api/contact", h.Contact)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, ssoEnabled bool) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/session", h.Session)
	mux.HandleFunc("GET /api/auth/snapshot", h.Snapshot)
	if ssoEnabled {
		mux.HandleFunc("GET /auth/sso/login", h.SSOLogin)
		mux.HandleFunc("GET /auth/sso/callback", h.SSOCallback)
	}
}

// crudRoutes registers standard CRUD routes for a resource base path, applying mw if non-nil.
type crudRoutes struct {
	Base       string
	Create     http.HandlerFunc
	List       http.HandlerFunc
	GetByID    http.HandlerFunc
	Update     http.HandlerFunc // optional; some resources have no update
	Delete     http.HandlerFunc
	Middleware func(http.Handler) http.Handler
}

func registerCRUD(mux *http.ServeMux, cfg crudRoutes) {
	if cfg.Base == "" {
		panic("registerCRUD: Base must not be empty") //nolint:forbidigo // Fail fast during server setup.
	}
	if cfg.Create == nil || cfg.List == nil || cfg.GetByID == nil || cfg.Delete == nil {
		panic("registerCRUD: nil handler for base " + cfg.Base) //nolint:forbidigo // Fail fast during server setup.
	}

	wrap := func(h http.HandlerFunc) http.Handler {
		if cfg.Middleware != nil {
			return cfg.Middleware(h)
		}
		return h
	}
	mux.Handle("POST "+cfg.Base, wrap(cfg.Create))
	mux.Handle("GET "+cfg.Base, wrap(cfg.List))
	mux.Handle("GET "+cfg.Base+"/{id}", wrap(cfg.GetByID))
	if cfg.Update != nil {
		mux.Handle("PUT "+cfg.Base+"/{id}", wrap(cfg.Update))
	}
	mux.Handle("DELETE "+cfg.Base+"/{id}", wrap(cfg.Delete))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, auth AuthServiceInterface) {
	adminOnly := RequireRole(auth, domainauth.RoleAdmin)

	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/packages",
		Create:     h.CreatePackage,
		List:       h.ListPackages,
		GetByID:    h.GetPackage,
		Update:     h.UpdatePackage,
		Delete:     h.DeletePackage,
		Middleware: adminOnly,
	})
	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/destinations",
		Create:     h.CreateDestination,
		List:       h.ListDestinations,
		GetByID:    h.GetDestination,
		Update:     h.UpdateDestination,
		Delete:     h.DeleteDestination,
		Middleware: adminOnly,
	})
	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/services",
		Create:     h.CreateService,
		List:       h.ListServices,
		GetByID:    h.GetService,
		Delete:     h.DeleteService,
		Middleware: adminOnly,
	})

	mux.Handle("GET /api/admin/bookings", adminOnly(http.HandlerFunc(h.ListBookings)))
	mux.Handle("GET /api/admin/bookings/{id}", adminOnly(http.HandlerFunc(h.GetBooking)))
	mux.Handle("PUT /api/admin/bookings/{id}/status", adminOnly(http.HandlerFunc(h.UpdateBookingStatus)))
	mux.Handle("GET /api/admin/customers", adminOnly(http.HandlerFunc(h.ListCustomers)))
	mux.Handle("GET /api/admin/contact-messages", adminOnly(http.HandlerFunc(h.ListContactMessages)))
	mux.Handle("POST /api/admin/contact-messages/{id}/handled", adminOnly(http.HandlerFunc(h.MarkContactHandled)))
}
