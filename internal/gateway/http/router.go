package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/internal/gateway/store"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/oidc"
	"github.com/docbrief/docbrief/pkg/slogx"

	_ "github.com/docbrief/docbrief/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// AdminRole gates the cross-user usage listing.
const AdminRole = "admin"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     oidc.TokenVerifier
	keys         *oidc.KeyCache // nil in introspection mode
	clientID     string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	llm   service.LLM

	SummarizeService *service.SummarizeService
	UsageService     *service.UsageService
	Extractor        service.Extractor
}

func NewRouter(
	verifier oidc.TokenVerifier,
	keys *oidc.KeyCache,
	clientID, buildVersion string,
	st store.Store,
	llm service.LLM,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		keys:         keys,
		clientID:     clientID,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		llm:          llm,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerIdentity()
	r.registerInference()
	r.registerUsage()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			DocBrief LLM Gateway API
//	@version		0.1.0
//	@description	Gateway that authenticates callers against a Keycloak realm and forwards
//	@description	summarization, query and chat requests to a local Ollama inference server.
//	@description
//	@description				Access tokens are validated locally against the realm's JWKS (RS256) or,
//	@description				when configured, via RFC 7662 token introspection.
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
//	@description				Keycloak access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn is the shared authentication middleware for secured routes.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, r.clientID)
}

func (r *Router) registerIdentity() {
	// GET /v1/me - cheap authenticated read, lenient per-user limit
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(&MeHandler{},
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerInference() {
	summarize := &SummarizeHandler{Summarizer: r.SummarizeService, Usage: r.UsageService}
	document := &DocumentHandler{Summarizer: r.SummarizeService, Extractor: r.Extractor, Usage: r.UsageService}
	analyze := &AnalyzeHandler{Summarizer: r.SummarizeService, Usage: r.UsageService}
	query := &QueryHandler{Summarizer: r.SummarizeService, Usage: r.UsageService}
	chat := &ChatHandler{Summarizer: r.SummarizeService, Usage: r.UsageService}
	models := &ModelsHandler{LLM: r.llm}

	// Generation endpoints are expensive - strict per-user limits
	r.Mux.Handle("POST /v1/summarize",
		httpx.Chain(summarize,
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/summarize/document",
		httpx.Chain(document,
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/analyze",
		httpx.Chain(analyze,
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/query",
		httpx.Chain(query,
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/chat",
		httpx.Chain(chat,
			r.authn(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// GET /v1/models - cheap authenticated read
	r.Mux.Handle("GET /v1/models",
		httpx.Chain(models,
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUsage() {
	h := &HistoryHandler{Usage: r.UsageService}

	// GET /v1/history - caller's own records
	r.Mux.Handle("GET /v1/history",
		httpx.Chain(http.HandlerFunc(h.HandleOwn),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /v1/usage - every user's records, admin only
	r.Mux.Handle("GET /v1/usage",
		httpx.Chain(http.HandlerFunc(h.HandleAll),
			r.authn(),
			httpx.RequireAnyRole(AdminRole),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.llm, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
