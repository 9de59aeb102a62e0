package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rakunlabs/ada"
	mcors "github.com/rakunlabs/ada/middleware/cors"
	mlog "github.com/rakunlabs/ada/middleware/log"
	mrecover "github.com/rakunlabs/ada/middleware/recover"
	mrequestid "github.com/rakunlabs/ada/middleware/requestid"
	mserver "github.com/rakunlabs/ada/middleware/server"
	mtelemetry "github.com/rakunlabs/ada/middleware/telemetry"
	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"

	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/cache"
	"github.com/rakunlabs/n8n-mcp/internal/config"
	"github.com/rakunlabs/n8n-mcp/internal/hostclient"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/security"
	"github.com/rakunlabs/n8n-mcp/internal/toolserver"
	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

var (
	name    = "n8n-mcp"
	version = "v0.0.0"
)

func main() {
	config.Service = name + "/" + version

	into.Init(run,
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	production := cfg.Server.Mode == "http"
	if err := cfg.Validate(production); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cat, err := openCatalog(cfg.Catalog.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open node catalog: %w", err)
	}
	slog.Info("node catalog ready", "nodeCount", cat.Count())

	clientCache := cache.New(cfg.Cache.Max, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)

	webhookMode := security.Mode(cfg.Webhook.SecurityMode)

	srv := toolserver.New(toolserver.Config{
		Default: hostclient.Config{
			APIURL:     cfg.N8N.APIURL,
			APIKey:     cfg.N8N.APIKey,
			Timeout:    cfg.N8N.Timeout,
			MaxRetries: cfg.N8N.MaxRetries,
		},
		WebhookMode: webhookMode,
	}, cat, clientCache)

	m := mcp.New(mcp.ServerInfo{Name: name, Version: version})
	srv.Register(m)

	switch cfg.Server.Mode {
	case "http":
		return serveHTTP(ctx, cfg, m)
	default:
		slog.Info("serving MCP over stdio")
		return m.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
}

// openCatalog opens the embedded SQLite node catalog at path, falling back
// to the small in-memory fixture when no path is configured (acceptable
// for development; a production deployment backing a real host instance
// should always set NODE_DB_PATH).
func openCatalog(path string) (catalog.Catalog, error) {
	if path == "" {
		slog.Warn("NODE_DB_PATH not set, using in-memory fixture catalog")
		return catalog.NewStatic(catalog.Seed()), nil
	}
	return catalog.OpenSQLite(path)
}

// serveHTTP wires the MCP JSON-RPC endpoint behind the teacher's ada
// middleware stack, plus the two concerns stdio mode doesn't need: bearer
// auth on AUTH_TOKEN and a per-caller rate limiter, and synthesis of a
// per-request InstanceContext from the x-n8n-url/x-n8n-key/x-instance-id/
// x-session-id headers (§6).
func serveHTTP(ctx context.Context, cfg *config.Config, m *mcp.MCP) error {
	limiter := toolserver.NewRateLimiter(cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitMax)
	go limiter.Cleanup(ctx, 5*time.Minute)

	mux := ada.New()
	mux.Use(
		mrecover.Middleware(),
		mserver.Middleware(config.Service),
		mcors.Middleware(),
		mrequestid.Middleware(),
		mlog.Middleware(),
		mtelemetry.Middleware(),
	)

	group := mux.Group(cfg.Server.BasePath)
	group.Handle("/mcp", instanceContextMiddleware(authMiddleware(cfg.Auth.Token, limiter, m)))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	slog.Info("serving MCP over http", "addr", addr, "basePath", cfg.Server.BasePath)
	return mux.StartWithContext(ctx, addr)
}

// authMiddleware enforces the AUTH_TOKEN bearer check and the per-caller
// rate limit before a request reaches the MCP dispatcher. The caller
// subject is the bearer token itself (or the x-session-id header, when
// present) so the limiter can distinguish callers sharing one token.
func authMiddleware(token string, limiter *toolserver.RateLimiter, m *mcp.MCP) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		presented := strings.TrimPrefix(auth, "Bearer ")
		if presented == auth || !security.ConstantTimeEqual(presented, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		subject := r.Header.Get("x-session-id")
		if subject == "" {
			subject = presented
		}
		if !limiter.Allow(subject) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		ctx := toolserver.WithCallerSubject(r.Context(), subject)
		m.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instanceContextMiddleware synthesizes a model.InstanceContext from
// per-request headers and attaches it to the request context, so
// resolveClient (C6) can route this call to a different n8n instance than
// the process-configured default without restarting the server.
func instanceContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ic := model.InstanceContext{
			APIURL:     r.Header.Get("x-n8n-url"),
			APIKey:     r.Header.Get("x-n8n-key"),
			InstanceID: r.Header.Get("x-instance-id"),
			SessionID:  r.Header.Get("x-session-id"),
		}
		if ic.APIURL != "" || ic.APIKey != "" || ic.InstanceID != "" || ic.SessionID != "" {
			r = r.WithContext(toolserver.WithInstanceContext(r.Context(), ic))
		}
		next.ServeHTTP(w, r)
	})
}
