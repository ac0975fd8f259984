package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/trust_unverified.txt
	trustUnverifiedRaw string

	//go:embed template/trust_verified.txt
	trustVerifiedRaw string

	//go:embed template/summarizer.txt
	summarizerRaw string

	//go:embed template/memory_input.txt
	memoryInputRaw string

	//go:embed template/resolution.txt
	resolutionRaw string

	//go:embed template/resolution_input.txt
	resolutionInputRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier      string
	TrustUnverified string
	TrustVerified   string
	Summarizer      string
	MemoryInput     string
	Resolution      string
	ResolutionInput string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:      strings.TrimSpace(classifierRaw),
		TrustUnverified: strings.TrimSpace(trustUnverifiedRaw),
		TrustVerified:   strings.TrimSpace(trustVerifiedRaw),
		Summarizer:      strings.TrimSpace(summarizerRaw),
		MemoryInput:     strings.TrimSpace(memoryInputRaw),
		Resolution:      strings.TrimSpace(resolutionRaw),
		ResolutionInput: strings.TrimSpace(resolutionInputRaw),
	}
}

func (p PromptSet) Validate() error {
	required := map[string]string{
		"classifier":       p.Classifier,
		"trust_unverified": p.TrustUnverified,
		"trust_verified":   p.TrustVerified,
		"summarizer":       p.Summarizer,
		"memory_input":     p.MemoryInput,
		"resolution":       p.Resolution,
		"resolution_input": p.ResolutionInput,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	return nil
}

// TrustDirective picks the trust block for the classification prompt.
func (p PromptSet) TrustDirective(verificationRequired bool) string {
	if verificationRequired {
		return p.TrustUnverified
	}
	return p.TrustVerified
}

// Render fills an FString template's {placeholders} from vars.
func Render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	msgs, err := einoprompt.FromMessages(schema.FString, schema.UserMessage(tmpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("%w: template rendered no message", contractx.ErrPromptMissing)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}
