package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ServeStdio runs the MCP JSON-RPC loop over r/w: one request per line in,
// one response per line out. It returns when r is exhausted (stdin closed)
// or ctx is cancelled (SIGTERM/SIGINT), whichever happens first — matching
// the "stdin-close *and* signals" shutdown trigger for stdio mode.
func (s *MCP) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if err := s.handleStdioLine(ctx, w, line); err != nil {
				slog.Error("stdio transport write failed", "error", err)
				return err
			}
		}
	}
}

func (s *MCP) handleStdioLine(ctx context.Context, w io.Writer, line string) error {
	var request JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &request); err != nil {
		return writeStdioResponse(w, s.createErrorResponse(nil, -32700, "Parse error"))
	}

	response := s.handleRequest(ctx, request)

	// Notifications produce no response line.
	if response.ID == nil && response.Result == nil && response.Error == nil {
		return nil
	}

	return writeStdioResponse(w, response)
}

func writeStdioResponse(w io.Writer, resp JSONRPCResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal stdio response: %w", err)
	}
	if _, err := w.Write(append(body, '\n')); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return fmt.Errorf("write stdio response: %w", err)
	}
	return nil
}
