package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/m2mgate/api/gateway" // Swagger docs
	"github.com/aussiebroadwan/m2mgate/internal/gateway/registry"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/service"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/aussiebroadwan/m2mgate/pkg/ratelimit"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// Scopes required by the customer endpoints.
const (
	ScopeCustomersRead  = "customers:read"
	ScopeCustomersWrite = "customers:write"
)

// Policies are the rate limits applied per endpoint class.
type Policies struct {
	Read  httpx.RateLimitPolicy
	Write httpx.RateLimitPolicy
	Token httpx.RateLimitPolicy
}

// DefaultPolicies: reads 100/min, writes and token requests 20/min.
var DefaultPolicies = Policies{
	Read:  httpx.ReadPolicy,
	Write: httpx.WritePolicy,
	Token: httpx.TokenPolicy,
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	signer       jwtx.Signer
	limiter      ratelimit.Limiter
	policies     Policies
	ipAllow      httpx.IPAllowConfig
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	registry      *registry.Registry
	autoProvision bool

	TokenService    *service.TokenService
	UserContexts    *service.UserContextService
	CustomerService *service.CustomerService
}

// Options configure a Router.
type Options struct {
	Version       string
	Logger        *slog.Logger
	Store         store.Store
	Registry      *registry.Registry
	Signer        jwtx.Signer
	Verifier      jwtx.Verifier
	Limiter       ratelimit.Limiter
	Policies      Policies
	IPAllow       httpx.IPAllowConfig
	AutoProvision bool
}

func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Policies == (Policies{}) {
		opts.Policies = DefaultPolicies
	}

	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      opts.Verifier,
		signer:        opts.Signer,
		limiter:       opts.Limiter,
		policies:      opts.Policies,
		ipAllow:       opts.IPAllow,
		buildVersion:  opts.Version,
		startTime:     time.Now(),
		logger:        opts.Logger,
		store:         opts.Store,
		registry:      opts.Registry,
		autoProvision: opts.AutoProvision,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerCustomers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			M2M Gateway API
//	@version		0.1.0
//	@description	OAuth2 client-credentials gateway for service-to-service access to customer data.
//	@description
//	@description				Access tokens are HS256 JWTs issued by /oauth2/token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/m2mgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	tokenHandler := &TokenHandler{TokenService: r.TokenService}

	// POST /oauth2/token - IP allowlist, then strict rate limit by IP
	r.Mux.Handle("POST /oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.CORSMiddleware(httpx.TokenEndpointCORS),
			httpx.IPAllowlistMiddleware(r.ipAllow),
			r.rateLimit("token", r.policies.Token),
		),
	)
	r.Mux.Handle("OPTIONS /oauth2/token", httpx.PreflightHandler(httpx.TokenEndpointCORS))
}

// gated builds the fixed M2M gate order: IP allowlist, rate limit, bearer
// verification, scope, per-client allowlist.
func (r *Router) gated(h http.Handler, class string, policy httpx.RateLimitPolicy, scope string) http.Handler {
	return httpx.Chain(h,
		httpx.IPAllowlistMiddleware(r.ipAllow),
		r.rateLimit(class, policy),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireScope(scope),
		httpx.ClientAllowlistMiddleware(r.registry.AllowlistFor),
	)
}

// rateLimit keys by caller IP within a per-class bucket, so token requests
// do not spend the read or write allowance.
func (r *Router) rateLimit(class string, policy httpx.RateLimitPolicy) httpx.Middleware {
	return httpx.RateLimitMiddleware(r.limiter, policy,
		httpx.CompositeKeyExtractor(":", httpx.StaticKey(class), httpx.IPKeyExtractor))
}

func (r *Router) registerCustomers() {
	h := &CustomersHandler{
		Customers:     r.CustomerService,
		UserContexts:  r.UserContexts,
		AutoProvision: r.autoProvision,
	}

	r.Mux.Handle("POST /api/m2m/customers",
		r.gated(http.HandlerFunc(h.HandleCreate), "write", r.policies.Write, ScopeCustomersWrite))
	r.Mux.Handle("GET /api/m2m/customers/search",
		r.gated(http.HandlerFunc(h.HandleSearch), "read", r.policies.Read, ScopeCustomersRead))
	r.Mux.Handle("PATCH /api/m2m/customers/{id}",
		r.gated(http.HandlerFunc(h.HandleUpdate), "write", r.policies.Write, ScopeCustomersWrite))
	r.Mux.Handle("OPTIONS /api/m2m/customers/", httpx.PreflightHandler(customersCORS))
	r.Mux.Handle("OPTIONS /api/m2m/customers", httpx.PreflightHandler(customersCORS))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.registry, r.signer))
}
