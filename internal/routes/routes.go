package routes

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/multilink-backend/internal/handlers"
	"github.com/AnshRaj112/multilink-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// JSONBodyLimit caps JSON request bodies.
const JSONBodyLimit = 10 << 10

type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Links    *handlers.LinkHandler
	Products *handlers.ProductHandler
	Upload   *handlers.UploadHandler
}

type Options struct {
	Log            *zap.Logger
	Tokens         middleware.AccessVerifier
	RateLimiter    *middleware.RateLimiter // nil disables the shared limit
	LoginLimiter   *middleware.LoginLimiter
	AllowedOrigins []string
	AllowedHost    string
	TrustProxy     bool
	Started        time.Time
}

// NewRouter builds the full HTTP surface.
func NewRouter(h Handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Log, opts.TrustProxy))
	r.Use(middleware.Recoverer(opts.Log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.HostCheck(opts.AllowedHost))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Handler)
	}
	if opts.LoginLimiter != nil {
		r.Use(opts.LoginLimiter.Handler)
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)

	// Health check (no rate limit)
	r.Get("/health", handlers.Health(opts.Started))

	authenticate := middleware.Authenticate(opts.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(JSONBodyLimit))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
				r.Post("/refresh", h.Auth.Refresh)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Post("/setup-mfa", h.Auth.SetupMfa)
					r.Post("/verify-mfa", h.Auth.VerifyMfa)
					r.Post("/disable-mfa", h.Auth.DisableMfa)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", h.Users.GetMe)
				r.Put("/me", h.Users.UpdateMe)
				r.Put("/me/password", h.Users.ChangePassword)
			})

			r.Route("/links", func(r chi.Router) {
				r.Get("/public/{username}", h.Links.Public)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Get("/", h.Links.List)
					r.Post("/", h.Links.Create)
					r.Put("/reorder", h.Links.Reorder)
					r.Put("/{id}", h.Links.Update)
					r.Delete("/{id}", h.Links.Delete)
				})
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/public/{username}", h.Products.Public)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Get("/", h.Products.List)
					r.Post("/", h.Products.Create)
					r.Put("/{id}", h.Products.Update)
					r.Delete("/{id}", h.Products.Delete)
				})
			})
		})

		// Multipart uploads carry their own size limit.
		r.With(authenticate).Post("/upload", h.Upload.UploadFile)
	})

	return r
}

// Walk logs every registered route at debug level.
func Walk(r chi.Routes, log *zap.Logger) {
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Debug("route", zap.String("method", method), zap.String("path", route))
		return nil
	})
}
