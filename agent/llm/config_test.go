package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:                "k",
		Model:                 "default/model",
		Temperature:           0.5,
		MaxCompletionToken:    100,
		MaxToolSteps:          2,
		ClassifierModel:       "fast/model",
		ClassifierTemperature: 0.1,
		SummarizerTemperature: -1,
		ResolutionTemperature: 0.9,
	}

	classifier := cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	if classifier.Model != "fast/model" || classifier.Temperature != 0.1 {
		t.Fatalf("classifier config = %+v", classifier)
	}
	summarizer := cfg.OpenRouterFor(contractx.AgentTypeSummarizer)
	if summarizer.Model != "default/model" || summarizer.Temperature != 0.5 {
		t.Fatalf("summarizer config = %+v", summarizer)
	}
	resolution := cfg.OpenRouterFor(contractx.AgentTypeResolution)
	if resolution.Model != "default/model" || resolution.Temperature != 0.9 {
		t.Fatalf("resolution config = %+v", resolution)
	}
	if *resolution.MaxCompletionToken != 100 {
		t.Fatalf("max completion token = %d", *resolution.MaxCompletionToken)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m", MaxToolSteps: 1}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
	if err := (Config{APIKey: "k", Model: "m", MaxToolSteps: 1}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
