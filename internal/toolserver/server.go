package toolserver

import (
	"context"
	"fmt"

	"github.com/rakunlabs/n8n-mcp/internal/cache"
	"github.com/rakunlabs/n8n-mcp/internal/catalog"
	"github.com/rakunlabs/n8n-mcp/internal/errs"
	"github.com/rakunlabs/n8n-mcp/internal/hostclient"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/security"
	"github.com/rakunlabs/n8n-mcp/pkg/mcp"
)

// Config is everything the dispatch layer needs beyond the individual
// component packages it composes.
type Config struct {
	// Default holds the process-configured n8n instance (N8N_API_URL /
	// N8N_API_KEY / timeout / retries), used verbatim in stdio mode and as
	// the fallback for any InstanceContext field a caller's headers omit.
	Default hostclient.Config

	WebhookMode security.Mode
}

// Server owns every dependency a tool handler needs: the client cache
// (C6), the node catalog (for C2/C5), and the webhook SSRF mode (for the
// trigger-webhook tool). It has no transport of its own — Register wires
// its handlers onto a *mcp.MCP, which a transport (stdio or HTTP) then
// drives.
type Server struct {
	cfg     Config
	cache   *cache.Cache
	catalog catalog.Catalog
}

func New(cfg Config, cat catalog.Catalog, clientCache *cache.Cache) *Server {
	return &Server{cfg: cfg, cache: clientCache, catalog: cat}
}

// resolveClient implements C6's resolution step of the C8 pipeline: take
// the InstanceContext off ctx if the transport attached one (HTTP mode),
// otherwise fall back to the process-configured instance (stdio mode), and
// ask the cache for a client, creating one via hostclient.New on a miss.
func (s *Server) resolveClient(ctx context.Context) (*hostclient.Client, error) {
	ic, ok := instanceFromContext(ctx)
	if !ok {
		ic = model.InstanceContext{APIURL: s.cfg.Default.APIURL, APIKey: s.cfg.Default.APIKey}
	}
	if ic.APIURL == "" {
		ic.APIURL = s.cfg.Default.APIURL
	}
	if ic.APIKey == "" {
		ic.APIKey = s.cfg.Default.APIKey
	}
	if ic.APIURL == "" {
		return nil, errs.New(errs.KindNotConfigured, "N8N_NOT_CONFIGURED",
			"no n8n API URL configured for this caller; set N8N_API_URL or pass x-n8n-url")
	}

	factory := func(ic model.InstanceContext) (any, error) {
		return hostclient.New(hostclient.Config{
			APIURL:     ic.APIURL,
			APIKey:     ic.APIKey,
			Timeout:    s.cfg.Default.Timeout,
			MaxRetries: s.cfg.Default.MaxRetries,
		})
	}

	entry, err := s.cache.Get(ic, factory)
	if err != nil {
		return nil, err
	}
	client, ok := entry.(*hostclient.Client)
	if !ok {
		return nil, errs.New(errs.KindInternal, "CACHE_TYPE_MISMATCH", "cached entry was not a *hostclient.Client")
	}
	return client, nil
}

// Register wires every tool handler (see register.go) onto m.
func (s *Server) Register(m *mcp.MCP) {
	s.registerWorkflowTools(m)
	s.registerValidateTools(m)
	s.registerExecutionTools(m)
	s.registerOpsTools(m)
}

// asJSONObject coerces a tool-call argument expected to be a nested object
// (parameters, connections, settings, ...) into map[string]any, tolerating
// a nil/absent argument as an empty object.
func asJSONObject(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	return m, nil
}
