package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type Analyzer interface {
	ProcessNewMessage(ctx context.Context, in orchestrator.Inbound) (orchestrator.Outcome, error)
}

type Cases interface {
	ResolveCase(ctx context.Context, resultID int64, notes string) (*domain.AnalysisResult, error)
}

type Identities interface {
	Link(ctx context.Context, brandID, customerID uuid.UUID, platformUserID string, channel domain.ChannelType, level domain.TrustLevel) (*domain.CustomerIdentity, error)
	TrustLevel(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) domain.TrustLevel
}

// AnalyzeTool handles the analyze_message MCP tool.
type AnalyzeTool struct {
	analyzer Analyzer
}

func NewAnalyzeTool(analyzer Analyzer) *AnalyzeTool {
	return &AnalyzeTool{analyzer: analyzer}
}

func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_message",
		mcp.WithDescription("Ingest a customer message for a brand and return the persisted analysis result."),
		mcp.WithString("brand_id", mcp.Required(), mcp.Description("Brand UUID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("platform", mcp.Required(), mcp.Description("Platform label, e.g. TWITTER, EMAIL, RECLAME_AQUI")),
		mcp.WithString("user", mcp.Required(), mcp.Description("Platform user handle or id")),
	)
}

func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brandID, err := uuid.Parse(req.GetString("brand_id", ""))
	if err != nil {
		return mcp.NewToolResultError("'brand_id' must be a UUID"), nil
	}

	out, err := t.analyzer.ProcessNewMessage(ctx, orchestrator.Inbound{
		BrandID:      brandID,
		Content:      req.GetString("content", ""),
		Platform:     req.GetString("platform", ""),
		PlatformUser: req.GetString("user", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(out)
}

// ResolveTool handles the resolve_case MCP tool.
type ResolveTool struct {
	cases Cases
}

func NewResolveTool(cases Cases) *ResolveTool {
	return &ResolveTool{cases: cases}
}

func (t *ResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("resolve_case",
		mcp.WithDescription("Resolve an analysed case and generate its public closing message."),
		mcp.WithNumber("result_id", mcp.Required(), mcp.Description("Analysis result id")),
		mcp.WithString("notes", mcp.Required(), mcp.Description("What was done to resolve the case")),
	)
}

func (t *ResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetInt("result_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'result_id' must be a positive integer"), nil
	}

	res, err := t.cases.ResolveCase(ctx, int64(id), req.GetString("notes", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	return jsonResult(res)
}

// LinkTool handles the link_identity MCP tool.
type LinkTool struct {
	identities Identities
}

func NewLinkTool(identities Identities) *LinkTool {
	return &LinkTool{identities: identities}
}

func (t *LinkTool) Definition() mcp.Tool {
	return mcp.NewTool("link_identity",
		mcp.WithDescription("Attach a platform identity to an existing unified customer with an explicit trust level."),
		mcp.WithString("brand_id", mcp.Required(), mcp.Description("Brand UUID")),
		mcp.WithString("customer_id", mcp.Required(), mcp.Description("Unified customer UUID")),
		mcp.WithString("user", mcp.Required(), mcp.Description("Platform user handle or id")),
		mcp.WithString("channel", mcp.Required(), mcp.Description("Channel type, e.g. WHATSAPP")),
		mcp.WithString("trust_level", mcp.Description("UNVERIFIED, TRUSTED or BLOCKED (default: TRUSTED)")),
	)
}

func (t *LinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brandID, err := uuid.Parse(req.GetString("brand_id", ""))
	if err != nil {
		return mcp.NewToolResultError("'brand_id' must be a UUID"), nil
	}
	customerID, err := uuid.Parse(req.GetString("customer_id", ""))
	if err != nil {
		return mcp.NewToolResultError("'customer_id' must be a UUID"), nil
	}
	channel, ok := domain.ParseChannelType(req.GetString("channel", ""))
	if !ok {
		return mcp.NewToolResultError("unknown 'channel'"), nil
	}
	level, ok := domain.ParseTrustLevel(req.GetString("trust_level", string(domain.TrustTrusted)))
	if !ok {
		return mcp.NewToolResultError("unknown 'trust_level'"), nil
	}

	identity, err := t.identities.Link(ctx, brandID, customerID, req.GetString("user", ""), channel, level)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("link failed: %v", err)), nil
	}
	return jsonResult(identity)
}

// TrustTool handles the get_trust_level MCP tool.
type TrustTool struct {
	identities Identities
}

func NewTrustTool(identities Identities) *TrustTool {
	return &TrustTool{identities: identities}
}

func (t *TrustTool) Definition() mcp.Tool {
	return mcp.NewTool("get_trust_level",
		mcp.WithDescription("Look up the trust level of a platform identity. Unknown identities are UNVERIFIED."),
		mcp.WithString("brand_id", mcp.Required(), mcp.Description("Brand UUID")),
		mcp.WithString("user", mcp.Required(), mcp.Description("Platform user handle or id")),
		mcp.WithString("channel", mcp.Required(), mcp.Description("Channel type")),
	)
}

func (t *TrustTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brandID, err := uuid.Parse(req.GetString("brand_id", ""))
	if err != nil {
		return mcp.NewToolResultError("'brand_id' must be a UUID"), nil
	}
	channel, ok := domain.ParseChannelType(req.GetString("channel", ""))
	if !ok {
		return mcp.NewToolResultError("unknown 'channel'"), nil
	}

	level := t.identities.TrustLevel(ctx, brandID, req.GetString("user", ""), channel)
	return mcp.NewToolResultText(fmt.Sprintf("Trust level: %s (verification required: %t)", level, level.VerificationRequired())), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
