// Package hostclient implements the REST Client (C7): a thin typed façade
// over the host's workflow/execution REST API, with retry/backoff on
// transport failures, PUT→PATCH method fallback for update-workflow, and
// payload cleaning before every create/update.
package hostclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/worldline-go/klient"

	"github.com/rakunlabs/n8n-mcp/internal/errs"
	"github.com/rakunlabs/n8n-mcp/internal/model"
	"github.com/rakunlabs/n8n-mcp/internal/security"
)

// Config configures a Client. It mirrors config.N8N; kept separate so this
// package has no dependency on the process-wide config package.
type Config struct {
	APIURL     string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the typed façade over the host's REST API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	http       *klient.Client
}

// New builds a Client against cfg. The API key is sent as a default header
// on every request via this client; the separate webhook client (see
// NewWebhookClient) never carries it.
func New(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errs.New(errs.KindNotConfigured, "N8N_NOT_CONFIGURED", "no n8n API URL configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	headers := http.Header{"Content-Type": []string{"application/json"}}
	if cfg.APIKey != "" {
		headers["X-N8N-API-KEY"] = []string{cfg.APIKey}
	}

	c, err := klient.New(
		klient.WithBaseURL(strings.TrimRight(cfg.APIURL, "/")),
		klient.WithHeaderSet(headers),
		klient.WithLogger(slog.Default()),
		klient.WithDisableEnvValues(true),
		klient.WithDisableRetry(true), // retries are implemented explicitly below, scoped to idempotent methods only
	)
	if err != nil {
		return nil, fmt.Errorf("build host client: %w", err)
	}

	return &Client{baseURL: strings.TrimRight(cfg.APIURL, "/"), timeout: timeout, maxRetries: maxRetries, http: c}, nil
}

// idempotentMethods never have side effects beyond their declared intent,
// so unlike POST they are safe to retry blindly on transport failure (§5).
var idempotentMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// do executes one request, decoding a JSON response body into out (if
// non-nil), retrying transport-level failures on idempotent methods with
// exponential backoff and jitter, and normalizing the result into the §7
// error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Wrap(errs.KindInputInvalid, "ENCODE_FAILED", "failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	var resp *http.Response
	attempts := 1
	if idempotentMethods[method] {
		attempts = c.maxRetries + 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2)) //nolint:gosec // jitter, not a security boundary
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				return nil, errs.Wrap(errs.KindTransport, "TIMEOUT", "request canceled while waiting to retry", ctx.Err())
			}

			var bodyCopy io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				bodyCopy = bytes.NewReader(b)
			}
			bodyReader = bodyCopy
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "BUILD_REQUEST_FAILED", "failed to build request", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var respBody []byte
		var statusCode int
		doErr := c.http.Do(req, func(r *http.Response) error {
			resp = r
			statusCode = r.StatusCode
			b, readErr := io.ReadAll(r.Body)
			if readErr != nil {
				return readErr
			}
			respBody = b
			return nil
		})

		if doErr != nil {
			lastErr = errs.Wrap(errs.KindTransport, "TRANSPORT_ERROR", "request to host failed", doErr)
			continue // transport-level failure: eligible for retry on idempotent methods
		}

		if statusCode >= 400 {
			return resp, apiError(method, path, statusCode, respBody)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return resp, errs.Wrap(errs.KindInternal, "DECODE_FAILED", "failed to decode host response", err)
			}
		}
		return resp, nil
	}

	return nil, lastErr
}

func apiError(method, path string, status int, body []byte) error {
	msg := fmt.Sprintf("%s %s returned %d", method, path, status)
	switch status {
	case http.StatusNotFound:
		return errs.New(errs.KindNotFound, "NOT_FOUND", msg).WithDetails(map[string]any{"body": errs.Sanitize(string(body))})
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.New(errs.KindAuthError, "AUTH_ERROR", msg)
	default:
		return errs.New(errs.KindAPIError, "API_ERROR", msg).WithDetails(map[string]any{"status": status, "body": errs.Sanitize(string(body))})
	}
}

// --- Workflows ---

func (c *Client) CreateWorkflow(ctx context.Context, wf map[string]any) (map[string]any, error) {
	var out map[string]any
	_, err := c.do(ctx, http.MethodPost, "/api/v1/workflows", CleanForCreate(wf), &out)
	return out, err
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, "/api/v1/workflows/"+id, nil, &out)
	return out, err
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/workflows/"+id, nil, nil)
	return err
}

// ListWorkflowsParams mirrors the n8n_list_workflows tool's filters (§6).
type ListWorkflowsParams struct {
	Limit             int
	Cursor            string
	Active            *bool
	Tags              []string
	ProjectID         string
	ExcludePinnedData bool
}

func (c *Client) ListWorkflows(ctx context.Context, p ListWorkflowsParams) (map[string]any, error) {
	q := make([]string, 0, 4)
	if p.Limit > 0 {
		q = append(q, fmt.Sprintf("limit=%d", p.Limit))
	}
	if p.Cursor != "" {
		q = append(q, "cursor="+p.Cursor)
	}
	if p.Active != nil {
		q = append(q, fmt.Sprintf("active=%v", *p.Active))
	}
	if p.ProjectID != "" {
		q = append(q, "projectId="+p.ProjectID)
	}
	if len(p.Tags) > 0 {
		// The host only accepts tags as a single comma-separated value; a
		// repeated "tags=" query parameter per tag silently matches nothing.
		q = append(q, "tags="+strings.Join(p.Tags, ","))
	}
	path := "/api/v1/workflows"
	if len(q) > 0 {
		path += "?" + strings.Join(q, "&")
	}
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// UpdateWorkflow implements the PUT→PATCH method-fallback quirk (§4.7,
// §8 scenario 6): try PUT; if the host answers 405 Method Not Allowed,
// retry exactly once with PATCH. No third attempt is made.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, wf map[string]any) (map[string]any, error) {
	cleaned := CleanForUpdate(wf)
	var out map[string]any
	resp, err := c.do(ctx, http.MethodPut, "/api/v1/workflows/"+id, cleaned, &out)
	if err == nil {
		return out, nil
	}
	if resp == nil || resp.StatusCode != http.StatusMethodNotAllowed {
		return nil, err
	}
	slog.Debug("host rejected PUT for workflow update, retrying once with PATCH", "id", id)
	_, err = c.do(ctx, http.MethodPatch, "/api/v1/workflows/"+id, cleaned, &out)
	return out, err
}

// --- Executions ---

func (c *Client) ListExecutions(ctx context.Context, workflowID, cursor string, limit int) (map[string]any, error) {
	path := "/api/v1/executions"
	q := make([]string, 0, 3)
	if workflowID != "" {
		q = append(q, "workflowId="+workflowID)
	}
	if cursor != "" {
		q = append(q, "cursor="+cursor)
	}
	if limit > 0 {
		q = append(q, fmt.Sprintf("limit=%d", limit))
	}
	if len(q) > 0 {
		path += "?" + strings.Join(q, "&")
	}
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetExecution(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, "/api/v1/executions/"+id, nil, &out)
	return out, err
}

func (c *Client) DeleteExecution(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/executions/"+id, nil, nil)
	return err
}

// HealthCheck hits the host's own health endpoint. Per §6, that endpoint
// may not exist on every n8n deployment, so a failure here falls back to a
// cheap, always-present read (GET /workflows?limit=1) before giving up.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, nil); err == nil {
		return nil
	}
	_, err := c.do(ctx, http.MethodGet, "/api/v1/workflows?limit=1", nil, nil)
	return err
}

// --- Webhook invocation ---

// WebhookClient is a separate façade for invoking caller-supplied webhook
// URLs. It is built without the API key header (a webhook target is not
// necessarily the configured n8n instance, so leaking the instance's API
// key to it would be a credential disclosure) and with a longer default
// timeout, matching how long-running workflow executions can take.
type WebhookClient struct {
	http    *klient.Client
	timeout time.Duration
	mode    security.Mode
}

func NewWebhookClient(mode security.Mode) (*WebhookClient, error) {
	c, err := klient.New(
		klient.WithDisableBaseURLCheck(true),
		klient.WithDisableEnvValues(true),
		klient.WithDisableRetry(true),
		klient.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("build webhook client: %w", err)
	}
	return &WebhookClient{http: c, timeout: 120 * time.Second, mode: mode}, nil
}

// Trigger invokes a caller-supplied webhook URL. It resolves the hostname
// and checks the result against the configured SSRF mode before issuing
// the request (resolve-then-connect, §7) — a TOCTOU-safe check would also
// pin the connection to the resolved IP; this implementation performs the
// check immediately before dialing to minimize that window.
func (w *WebhookClient) Trigger(ctx context.Context, url, method string, payload any, headers map[string]string, waitForResponse bool) (map[string]any, error) {
	if _, err := security.CheckWebhookURL(url, w.mode, nil); err != nil {
		return nil, errs.Wrap(errs.KindInputInvalid, "WEBHOOK_BLOCKED", "webhook url rejected by SSRF policy", err)
	}

	timeout := w.timeout
	if !waitForResponse {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errs.Wrap(errs.KindInputInvalid, "ENCODE_FAILED", "failed to encode webhook payload", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, errs.Wrap(errs.KindInputInvalid, "INVALID_URL", "invalid webhook url", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	var out map[string]any
	var statusCode int
	err = w.http.Do(req, func(r *http.Response) error {
		statusCode = r.StatusCode
		b, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			return readErr
		}
		if len(b) == 0 {
			return nil
		}
		return json.Unmarshal(b, &out)
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindTransport, "WEBHOOK_FAILED", "webhook invocation failed", err)
	}
	if statusCode >= 400 {
		return nil, apiError(method, url, statusCode, nil)
	}
	return out, nil
}

// --- Payload cleaning (§4.7) ---

var createStripKeys = []string{"id", "createdAt", "updatedAt", "versionId", "meta", "active", "tags"}

var updateStripKeys = append(append([]string{}, createStripKeys...),
	"staticData", "pinData", "isArchived", "usedCredentials", "sharedWithProjects", "triggerCount", "shared")

// CleanForCreate strips server-managed and read-only fields before a
// create-workflow POST.
func CleanForCreate(wf map[string]any) map[string]any {
	return stripKeys(wf, createStripKeys)
}

// CleanForUpdate strips the create-time fields plus the additional
// host-UI-only fields a GET response carries, and filters any settings
// object down to the writable whitelist (§3) rather than omitting it.
func CleanForUpdate(wf map[string]any) map[string]any {
	out := stripKeys(wf, updateStripKeys)
	if settings, ok := out["settings"].(map[string]any); ok {
		kept, dropped := model.FilterSettingsMap(settings)
		if len(dropped) > 0 {
			slog.Debug("stripped non-whitelisted settings keys before update", "keys", dropped)
		}
		out["settings"] = kept
	}
	return out
}

func stripKeys(wf map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(wf))
	strip := make(map[string]bool, len(keys))
	for _, k := range keys {
		strip[k] = true
	}
	for k, v := range wf {
		if strip[k] {
			continue
		}
		out[k] = v
	}
	return out
}
