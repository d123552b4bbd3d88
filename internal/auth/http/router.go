package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/smartplant/auth/pkg/slogx"

	_ "github.com/smartplant/auth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	redis        redis.UniversalClient // nil: rate limits are per process

	Sessions         *service.SessionService
	UserService      *service.UserService
	BootstrapService *service.BootstrapService
	Gate             httpx.Authenticator
	Cookies          Cookies

	// ServiceAPIKey authenticates the training service on the introspection
	// endpoint. Empty disables the endpoint.
	ServiceAPIKey string

	// ClientIP picks the address rate limits are keyed on and sessions are
	// recorded with. Nil keys on the connection address.
	ClientIP httpx.KeyExtractor
}

func NewRouter(buildVersion string, st store.Store, rdb redis.UniversalClient, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		redis:        rdb,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	if r.ClientIP == nil {
		r.ClientIP = httpx.IPKeyExtractor
	}

	r.registerAuth()
	r.registerUsers()
	r.registerService()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("GET /metrics", metrics.Handler())
	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SmartPlant Authentication Service API
//	@version		0.1.0
//	@description	Session service for SmartPlant Sarawak. Login is two steps: a password check that emails
//	@description	a six digit code, then the code exchange that returns a 15 minute HS256 access token and a
//	@description	rotating 7 day refresh token.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}". Browsers may send the accessToken cookie instead.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// limit builds a rate limit middleware. With Redis configured the counts are
// shared by every instance; name keeps the profiles apart.
func (r *Router) limit(name string, cfg httpx.RateLimitConfig, key httpx.KeyExtractor) httpx.Middleware {
	var l httpx.Limiter
	if r.redis != nil {
		l = httpx.NewRedisLimiter(r.redis, name, cfg)
	} else {
		l = httpx.NewLocalLimiter(cfg)
	}
	return httpx.RateLimitWith(l, cfg, key)
}

func (r *Router) byUser(name string, cfg httpx.RateLimitConfig) httpx.Middleware {
	return r.limit(name, cfg, httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, r.ClientIP))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.Sessions, Users: r.UserService, Cookies: r.Cookies, ClientIP: r.ClientIP}

	// Login and verify share one per-IP budget.
	authLimit := r.limit("auth", httpx.AuthLimit, r.ClientIP)

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			r.limit("register", httpx.StrictLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /v1/auth/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), authLimit))
	r.Mux.Handle("POST /v1/auth/verify-mfa", httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA), authLimit))
	r.Mux.Handle("POST /v1/auth/resend-mfa",
		httpx.Chain(http.HandlerFunc(h.HandleResendMFA),
			r.limit("resend", httpx.StrictLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			r.limit("refresh", httpx.StrictLimit, r.ClientIP),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.Gate),
			r.byUser("logout", httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			httpx.AuthnMiddleware(r.Gate),
			r.byUser("logout-all", httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.Gate),
			r.byUser("me", httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService}
	admin := domain.RoleAdmin.String()

	r.Mux.Handle("GET /v1/users/{id}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleListSessions),
			httpx.AuthnMiddleware(r.Gate),
			httpx.RequireOwnership("id", admin),
			r.byUser("sessions", httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/users/{id}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleRevokeSessions),
			httpx.AuthnMiddleware(r.Gate),
			httpx.RequireRole(admin),
			r.byUser("sessions-admin", httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleSetRole),
			httpx.AuthnMiddleware(r.Gate),
			httpx.RequireRole(admin),
			r.byUser("role", httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerService() {
	r.Mux.Handle("POST /v1/service/introspect",
		httpx.Chain(&IntrospectHandler{Authenticator: r.Gate},
			httpx.RequireAPIKey(r.ServiceAPIKey),
			r.limit("introspect", httpx.PublicLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerBootstrap() {
	// One-time setup endpoint, very strict.
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{BootstrapService: r.BootstrapService},
			r.limit("bootstrap", httpx.StrictLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	var cache Pinger
	if r.redis != nil {
		cache = redisPinger{r.redis}
	}
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.limit("livez", httpx.LenientLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, cache),
			r.limit("readyz", httpx.LenientLimit, r.ClientIP),
		),
	)
}

type redisPinger struct{ c redis.UniversalClient }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }
