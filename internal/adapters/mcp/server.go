package mcpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/logging"
)

const (
	serverName    = "tradedoc-reconciler"
	serverVersion = "1." + domain.ContractVersion

	validateToolName = "validate_shipment"
	getToolName      = "get_validation"
)

// NewServer exposes the validator as MCP tools. reader may be nil, in which
// case get_validation is not registered.
func NewServer(validator ports.ShipmentValidator, reader ports.ValidationReader) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(validateToolName,
		mcp.WithDescription("Reconcile the extracted fields of one shipment's trade documents and return the validation report."),
		mcp.WithString("documents",
			mcp.Required(),
			mcp.Description(`JSON array of document extractions: [{"documentId":"...","documentType":"invoice","fields":{...}}]`),
		),
	), validateHandler(validator))

	if reader != nil {
		s.AddTool(mcp.NewTool(getToolName,
			mcp.WithDescription("Fetch a stored validation run by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Validation run id.")),
		), getHandler(reader))
	}
	return s
}

func validateHandler(validator ports.ShipmentValidator) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("documents")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload, err := wrapDocuments(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		run, err := validator.ValidatePayload(ctx, payload)
		if err != nil {
			return toolError(ctx, validateToolName, err)
		}
		return jsonResult(run)
	}
}

func getHandler(reader ports.ValidationReader) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		run, err := reader.GetByID(ctx, id)
		if err != nil {
			return toolError(ctx, getToolName, err)
		}
		return jsonResult(run)
	}
}

// wrapDocuments turns the tool argument into a ValidationRequest body. A
// full {"documents":[...]} object is accepted as well.
func wrapDocuments(raw string) ([]byte, error) {
	var documents json.RawMessage
	if err := json.Unmarshal([]byte(raw), &documents); err != nil {
		return nil, fmt.Errorf("documents must be valid JSON: %w", err)
	}
	trimmed := bytes.TrimSpace(documents)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}
	return json.Marshal(struct {
		Documents json.RawMessage `json:"documents"`
	}{Documents: documents})
}

// toolError reports caller mistakes as tool results and everything else as
// a protocol error.
func toolError(ctx context.Context, tool string, err error) (*mcp.CallToolResult, error) {
	if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logging.FromContext(ctx).Error("mcp_tool_failed", "tool", tool, "error", err)
	return nil, fmt.Errorf("%s: %w", tool, err)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
