package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	"github.com/tanpawarit/brand-intelligence-agent/agent/identity"
	"github.com/tanpawarit/brand-intelligence-agent/agent/store"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type fakeAnalyzer struct {
	got orchestrator.Inbound
}

func (f *fakeAnalyzer) ProcessNewMessage(ctx context.Context, in orchestrator.Inbound) (orchestrator.Outcome, error) {
	f.got = in
	return orchestrator.Outcome{
		Message: &domain.SocialMessage{ID: 3, Content: in.Content},
		Result:  &domain.AnalysisResult{ID: 9, MessageID: 3, Category: "PRAISE"},
		Parsed:  true,
	}, nil
}

type fakeCases struct{ err error }

func (f fakeCases) ResolveCase(ctx context.Context, id int64, notes string) (*domain.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	closing := "Glad we could help."
	return &domain.AnalysisResult{ID: id, Status: domain.StatusResolved, PublicClosingMessage: &closing}, nil
}

func newIdentities(t *testing.T) *identity.Resolver {
	t.Helper()
	r, err := identity.NewResolver(store.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestAnalyzeTool(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	tool := NewAnalyzeTool(analyzer)

	if def := tool.Definition(); def.Name != "analyze_message" {
		t.Fatalf("tool name = %q", def.Name)
	}

	brand := uuid.New()
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"brand_id": brand.String(),
		"content":  "Love the new app",
		"platform": "instagram",
		"user":     "@fan",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if analyzer.got.BrandID != brand || analyzer.got.PlatformUser != "@fan" {
		t.Fatalf("unexpected inbound %+v", analyzer.got)
	}
	if !strings.Contains(resultText(res), `"PRAISE"`) {
		t.Fatalf("expected result JSON, got %s", resultText(res))
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"brand_id": "nope"}))
	if !res.IsError {
		t.Fatal("expected error for invalid brand id")
	}
}

func TestResolveTool(t *testing.T) {
	tool := NewResolveTool(fakeCases{})
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"result_id": float64(9), "notes": "done"}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.IsError || !strings.Contains(resultText(res), "Glad we could help.") {
		t.Fatalf("unexpected result: %s", resultText(res))
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"notes": "done"}))
	if !res.IsError {
		t.Fatal("expected error for missing result id")
	}

	failing := NewResolveTool(fakeCases{err: errors.New("not found")})
	res, _ = failing.Handle(context.Background(), makeReq(map[string]interface{}{"result_id": float64(1)}))
	if !res.IsError {
		t.Fatal("expected tool error when resolve fails")
	}
}

func TestLinkAndTrustTools(t *testing.T) {
	identities := newIdentities(t)
	brand, customer := uuid.New(), uuid.New()

	trust := NewTrustTool(identities)
	args := map[string]interface{}{"brand_id": brand.String(), "user": "+5511", "channel": "whatsapp"}
	res, _ := trust.Handle(context.Background(), makeReq(args))
	if !strings.Contains(resultText(res), "UNVERIFIED") {
		t.Fatalf("expected UNVERIFIED before link, got %s", resultText(res))
	}

	link := NewLinkTool(identities)
	res, err := link.Handle(context.Background(), makeReq(map[string]interface{}{
		"brand_id":    brand.String(),
		"customer_id": customer.String(),
		"user":        "+5511",
		"channel":     "WHATSAPP",
	}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected link error: %s", resultText(res))
	}

	res, _ = trust.Handle(context.Background(), makeReq(args))
	if !strings.Contains(resultText(res), "TRUSTED") || !strings.Contains(resultText(res), "verification required: false") {
		t.Fatalf("expected TRUSTED after link, got %s", resultText(res))
	}

	res, _ = link.Handle(context.Background(), makeReq(map[string]interface{}{
		"brand_id": brand.String(), "customer_id": customer.String(), "user": "x", "channel": "pager",
	}))
	if !res.IsError {
		t.Fatal("expected error for unknown channel")
	}
}

func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeAnalyzer{}, fakeCases{}, newIdentities(t))
	if s == nil {
		t.Fatal("expected server")
	}
}
