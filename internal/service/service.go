// Package service exposes the decompiler over JSON-RPC 2.0: an IDE or
// bulk-analysis tool asks "decompile method M of class C" without
// shelling out to the CLI per call, without the pretense of speaking
// the Language Server Protocol — there is no text document here, just
// class/method requests.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"

	"dad/internal/decompile"
	"dad/internal/dex"
	"dad/internal/writer"
)

var log = commonlog.GetLogger("dad.service")

// DecompileMethodResult is the "decompile/method" response payload: the
// rendered text form and, for tooling that wants structure rather than
// text, the AST shape.
type DecompileMethodResult struct {
	Source string `json:"source"`
	AST writer.MethodAST `json:"ast"`
	Error string `json:"error,omitempty"`
	Kind string `json:"errorKind,omitempty"`
}

// DecompileClassResult is the "decompile/class" response payload: one
// result per method, in the class's declared order, so a caller can
// correlate by index without needing method names to be unique.
type DecompileClassResult struct {
	Methods []DecompileMethodResult `json:"methods"`
	Error string `json:"error,omitempty"`
}

// Handler implements jsonrpc2.Handler for the two decompile-as-a-service
// methods. It holds no per-connection state: every request carries its
// own already-parsed method/class data — this core never parses a .dex
// container itself.
type Handler struct{}

// NewHandler returns the RPC handler wired to both supported methods.
func NewHandler() *Handler { return &Handler{} }

// Handle dispatches one JSON-RPC request (jsonrpc2.Handler).
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	result, err := h.dispatch(req)
	if req.Notif {
		return
	}
	if err != nil {
		if replyErr := conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}); replyErr != nil {
			log.Errorf("failed to reply with error: %s", replyErr)
		}
		return
	}
	if replyErr := conn.Reply(ctx, req.ID, result); replyErr != nil {
		log.Errorf("failed to reply: %s", replyErr)
	}
}

func (h *Handler) dispatch(req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "decompile/method":
		return h.decompileMethod(req.Params)
	case "decompile/class":
		return h.decompileClass(req.Params)
	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}

func (h *Handler) decompileMethod(raw *json.RawMessage) (DecompileMethodResult, error) {
	if raw == nil {
		return DecompileMethodResult{}, fmt.Errorf("missing params")
	}
	var p struct {
		Method *dex.MethodInput `json:"method"`
	}
	if err := json.Unmarshal(*raw, &p); err != nil {
		return DecompileMethodResult{}, fmt.Errorf("decoding params: %w", err)
	}
	if p.Method == nil {
		return DecompileMethodResult{}, fmt.Errorf("missing method")
	}
	mr := decompile.DecompileMethod(p.Method)
	return methodResultFrom(mr), nil
}

func (h *Handler) decompileClass(raw *json.RawMessage) (DecompileClassResult, error) {
	if raw == nil {
		return DecompileClassResult{}, fmt.Errorf("missing params")
	}
	var p struct {
		Class *decompile.ClassInput `json:"class"`
	}
	if err := json.Unmarshal(*raw, &p); err != nil {
		return DecompileClassResult{}, fmt.Errorf("decoding params: %w", err)
	}
	if p.Class == nil {
		return DecompileClassResult{}, fmt.Errorf("missing class")
	}
	classResult := decompile.DecompileClass(p.Class)
	out := DecompileClassResult{}
	if classResult.Err != nil {
		out.Error = classResult.Err.Error()
		return out, nil
	}
	for _, mr := range classResult.Methods {
		out.Methods = append(out.Methods, methodResultFrom(mr))
	}
	return out, nil
}

func methodResultFrom(mr decompile.MethodResult) DecompileMethodResult {
	if mr.Err != nil {
		return DecompileMethodResult{Error: mr.Err.Error(), Kind: string(mr.Err.Kind)}
	}
	return DecompileMethodResult{
		Source: writer.NewTextWriter().WriteMethod(mr.View),
		AST: writer.BuildMethodAST(mr.View),
	}
}
