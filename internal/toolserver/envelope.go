package toolserver

import (
	"github.com/rakunlabs/n8n-mcp/internal/errs"
)

// envelope is the uniform shape every tool handler exits with, success or
// error (§4.8, §6). Field names match the MCP tool response contract.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

func okMessage(message string, data any) envelope {
	return envelope{Success: true, Message: message, Data: data}
}

// fail turns any error into an envelope. Errors produced by internal/errs
// carry a stable Kind/Code; everything else is treated as the Internal
// kind's "unexpected exception" fallback (§4.8, §7). The message is always
// sanitized before it leaves this process.
func fail(err error) envelope {
	e, ok := errs.As(err)
	if !ok {
		return envelope{
			Success: false,
			Error:   errs.SanitizedError(err),
			Code:    string(errs.KindInternal),
		}
	}

	env := envelope{
		Success: false,
		Error:   errs.Sanitize(e.Message),
		Code:    e.Code,
	}
	if e.Details != nil {
		env.Details = e.Details
	}
	return env
}

// failInput is the InputInvalid-specific envelope shape from §7: a fixed
// "Invalid input" error with the field-level problems in details.
func failInput(details any) envelope {
	return envelope{
		Success: false,
		Error:   "Invalid input",
		Code:    string(errs.KindInputInvalid),
		Details: details,
	}
}
