package prompt

import (
	"context"
	"strings"
	"testing"
)

func TestLoadPromptSetComplete(t *testing.T) {
	t.Parallel()

	if err := LoadPromptSet().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestTrustDirective(t *testing.T) {
	t.Parallel()

	p := LoadPromptSet()
	const linkage = "Request account linkage for history access"
	if !strings.Contains(p.TrustDirective(true), linkage) {
		t.Fatal("unverified directive must ask for account linkage")
	}
	if strings.Contains(p.TrustDirective(false), linkage) {
		t.Fatal("verified directive must not ask for account linkage")
	}
	if strings.Contains(p.Classifier, linkage) {
		t.Fatal("base classifier prompt must not carry the linkage action")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	got, err := Render(context.Background(), LoadPromptSet().ResolutionInput, map[string]any{
		"complaint": "late order",
		"notes":     "refund issued",
		"channel":   "TWITTER",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "Original complaint: late order\nResolution summary: refund issued\nChannel: TWITTER"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}
