// Package httpapi exposes the contact book over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/ratelimit"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/dmitrijs2005/contactbook/internal/server/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AuthService is the account API used by the handlers.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput, baseURL string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, user *models.User) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) (bool, error)
	RequestEmail(ctx context.Context, email, baseURL string) (bool, error)
	UpdateAvatar(ctx context.Context, user *models.User, contentType string, data []byte) (*models.User, error)
}

// ContactService is the contact store API used by the handlers.
type ContactService interface {
	List(ctx context.Context, userID int64, offset, limit int) ([]*models.Contact, error)
	Get(ctx context.Context, userID, id int64) (*models.Contact, error)
	Create(ctx context.Context, userID int64, draft *models.ContactDraft) (*models.Contact, error)
	Update(ctx context.Context, userID, id int64, draft *models.ContactDraft) (*models.Contact, error)
	Delete(ctx context.Context, userID, id int64) (*models.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64) ([]*models.Contact, error)
	Search(ctx context.Context, userID int64, term string) (*models.Contact, error)
}

// Limiter admits or rejects a request from client on route.
type Limiter interface {
	Allow(ctx context.Context, route, client string) ratelimit.Result
}

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	// BaseURL is used in confirmation links. Empty means derive it from the
	// incoming request.
	BaseURL        string
	MaxAvatarBytes int64
	RequestTimeout time.Duration
	// TrustProxyHeaders takes the client address and scheme from
	// X-Real-IP/X-Forwarded-For and X-Forwarded-Proto. Enable only behind a
	// proxy that overwrites them, otherwise clients pick their own
	// rate-limit key.
	TrustProxyHeaders bool
	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty disables CORS handling.
	CORSOrigins []string
}

type Router struct {
	auth     AuthService
	contacts ContactService
	limiter  Limiter
	db       Pinger
	validate *validation.Validator
	log      logging.Logger
	opts     Options
}

func NewRouter(auth AuthService, contacts ContactService, limiter Limiter, db Pinger, log logging.Logger, opts Options) http.Handler {
	if opts.MaxAvatarBytes <= 0 {
		opts.MaxAvatarBytes = 5 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := &Router{
		auth:     auth,
		contacts: contacts,
		limiter:  limiter,
		db:       db,
		validate: validation.New(),
		log:      log,
		opts:     opts,
	}

	mux := chi.NewRouter()
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	mux.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		mux.Use(middleware.RealIP)
	}
	mux.Use(r.accessLog)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(opts.RequestTimeout))

	mux.Get("/", r.handleRoot)
	mux.Get("/healthz", r.handleHealth)

	mux.Route("/api/auth", func(ar chi.Router) {
		ar.Post("/signup", r.handleSignup)
		ar.Post("/login", r.handleLogin)
		ar.Get("/refresh_token", r.handleRefresh)
		ar.Get("/confirmed_email/{token}", r.handleConfirmEmail)
		ar.Post("/request_email", r.handleRequestEmail)
		ar.With(r.authMiddleware).Post("/logout", r.handleLogout)
	})

	mux.Route("/api/users", func(ur chi.Router) {
		ur.Use(r.authMiddleware)
		ur.Get("/me/", r.handleMe)
		ur.Patch("/avatar", r.handleAvatar)
	})

	mux.Route("/api/contacts", func(cr chi.Router) {
		// the gate runs before token resolution so bad tokens are counted too
		cr.Group(func(lr chi.Router) {
			lr.Use(r.rateLimit, r.authMiddleware)
			lr.Get("/", r.handleListContacts)
			lr.Post("/", r.handleCreateContact)
		})
		cr.Group(func(ar chi.Router) {
			ar.Use(r.authMiddleware)
			ar.Get("/birthdays/", r.handleBirthdays)
			ar.Get("/searching/", r.handleSearch)
			ar.Get("/{id}", r.handleGetContact)
			ar.Put("/{id}", r.handleUpdateContact)
			ar.Delete("/{id}", r.handleDeleteContact)
		})
	})

	return mux
}

func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Did you know that in the reality everything is different than it actually is"})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		r.log.Warn(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
