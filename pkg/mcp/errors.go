package mcp

// createErrorResponse builds a JSON-RPC 2.0 error response. code follows the
// standard JSON-RPC reserved ranges (-32700 parse error, -32601 method not
// found, -32602 invalid params, -32603 internal error) plus whatever a
// handler layer chooses for its own application errors.
func (s *MCP) createErrorResponse(id any, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}
