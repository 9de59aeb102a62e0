// Package toolserver is the Tool Dispatch Layer (C8): it registers the MCP
// tool surface on top of pkg/mcp, resolves an instance-scoped host client
// per call (C6), and wraps every handler exit in the uniform envelope.
package toolserver

import (
	"context"

	"github.com/rakunlabs/n8n-mcp/internal/model"
)

type ctxKey int

const (
	ctxKeyInstance ctxKey = iota
	ctxKeySubject
)

// WithInstanceContext attaches a per-request InstanceContext (§3) to ctx.
// The HTTP transport does this from the x-n8n-url/x-n8n-key/x-instance-id/
// x-session-id headers; stdio mode never calls this, so resolveClient falls
// back to the process-wide configured instance.
func WithInstanceContext(ctx context.Context, ic model.InstanceContext) context.Context {
	return context.WithValue(ctx, ctxKeyInstance, ic)
}

func instanceFromContext(ctx context.Context) (model.InstanceContext, bool) {
	ic, ok := ctx.Value(ctxKeyInstance).(model.InstanceContext)
	return ic, ok
}

// WithCallerSubject attaches the identity the auth rate limiter keys on —
// typically the bearer token's session id in HTTP mode. stdio mode has a
// single caller, so the dispatcher keys it on a fixed constant instead.
func WithCallerSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, subject)
}

func callerSubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(ctxKeySubject).(string)
	if subject == "" {
		return "stdio"
	}
	return subject
}
