package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	domuser "example.com/technotes/app/internal/domain/user"
	useruc "example.com/technotes/app/internal/usecase/user"
)

type API struct {
	userSvc   *useruc.Service
	validator *validator.Validate
	log       logrus.FieldLogger
	registry  *prometheus.Registry
	metrics   *metrics
	limiter   *rate.Limiter
	health    func(ctx context.Context) error
}

type Dependencies struct {
	UserService *useruc.Service
	Logger      logrus.FieldLogger
	// Registry receives the HTTP collectors and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
	// RateLimit disables limiting when RPS <= 0.
	RateLimit   RateLimit
	HealthCheck func(ctx context.Context) error
}

type RateLimit struct {
	RPS   float64
	Burst int
}

func NewAPI(deps Dependencies) *API {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	a := &API{
		userSvc:   deps.UserService,
		validator: validator.New(),
		log:       log,
		registry:  reg,
		metrics:   newMetrics(reg),
		health:    deps.HealthCheck,
	}
	if deps.RateLimit.RPS > 0 {
		burst := deps.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(deps.RateLimit.RPS), burst)
	}
	return a
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(a.instrument)
	r.Use(a.recoverer)
	r.Use(a.rateLimit)

	r.NotFound(a.handleNotFound)
	r.MethodNotAllowed(a.handleNotFound)

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", a.handleListUsers)
		ur.Post("/", a.handleCreateUser)
		ur.Patch("/", a.handleUpdateUser)
		ur.Delete("/", a.handleDeleteUser)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			a.log.WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errNotJSON = errors.New("request body is not application/json")

// decodeAndValidate only reads JSON bodies. Any other content type is
// treated as an empty body, so the caller's missing-field error applies.
func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errNotJSON
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondMessage(w, status, err.Error())
}

func mapUser(u *domuser.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"roles":    domuser.RoleStrings(u.Roles),
		"active":   u.Active,
	}
}

func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// must precede ErrDuplicateUsername, which it wraps
	case errors.Is(err, domuser.ErrUsernameConflict):
		respondError(w, http.StatusConflict, domuser.ErrUsernameConflict)
	case errors.Is(err, domuser.ErrMissingFields),
		errors.Is(err, domuser.ErrMissingID),
		errors.Is(err, domuser.ErrNoUsersFound),
		errors.Is(err, domuser.ErrUserNotFound),
		errors.Is(err, domuser.ErrUserHasNotes):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, domuser.ErrInvalidUserData):
		respondError(w, http.StatusBadRequest, domuser.ErrInvalidUserData)
	case errors.Is(err, domuser.ErrDuplicateUsername):
		respondError(w, http.StatusBadRequest, domuser.ErrDuplicateUsername)
	default:
		a.requestLog(r).WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, err)
	}
}
