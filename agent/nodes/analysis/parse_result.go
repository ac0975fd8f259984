package analysisnode

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var escapeReplacer = strings.NewReplacer(
	"```json", "",
	"```", "",
	`\u00e9`, "é",
	`\u00ea`, "ê",
	`\u00e1`, "á",
	`\u00e3`, "ã",
	`\u00e7`, "ç",
	`\u00f3`, "ó",
	`\u00ed`, "í",
)

// CleanResponse strips markdown fences and a fixed set of escaped accents.
func CleanResponse(raw string) string {
	return strings.TrimSpace(escapeReplacer.Replace(raw))
}

// ParseAnalysis decodes the agent's JSON. Prose around the object is ignored.
// verificationRequired always comes from the trust lookup, never from the model.
// Suggested actions are kept exactly as the model returned them.
func ParseAnalysis(raw string, verificationRequired bool) (domain.Analysis, error) {
	cleaned := CleanResponse(raw)
	if cleaned == "" {
		return domain.Analysis{}, fmt.Errorf("%w: empty response", contractx.ErrSchemaViolation)
	}
	obj, ok := firstObject(cleaned)
	if !ok {
		return domain.Analysis{}, fmt.Errorf("%w: response holds no complete JSON object", contractx.ErrSchemaViolation)
	}

	rawSentiment := obj.Get("sentiment")
	sentiment, ok := domain.ParseSentiment(rawSentiment.String())
	if rawSentiment.Type != gjson.String || !ok {
		return domain.Analysis{}, fmt.Errorf("%w: unknown sentiment %s", contractx.ErrSchemaViolation, rawSentiment.Raw)
	}

	category := strings.ToUpper(strings.TrimSpace(obj.Get("category").String()))
	if category == "" {
		category = domain.CategoryUncategorized
	}

	return domain.Analysis{
		Sentiment:               sentiment,
		Category:                category,
		Summary:                 strings.TrimSpace(obj.Get("summary").String()),
		ConfidenceScore:         clamp01(obj.Get("confidenceScore").Float()),
		Keywords:                stringList(obj.Get("keywords")),
		SuggestedActions:        stringList(obj.Get("suggestedActions")),
		RequiresUrgentAttention: obj.Get("requiresUrgentAttention").Bool(),
		VerificationRequired:    verificationRequired,
	}, nil
}

// firstObject returns the first top-level JSON object in s, which must be complete and valid.
func firstObject(s string) (gjson.Result, bool) {
	i := strings.IndexByte(s, '{')
	if i < 0 {
		return gjson.Result{}, false
	}
	var obj gjson.Result
	gjson.ForEachLine(s[i:], func(line gjson.Result) bool {
		obj = line
		return false
	})
	if !obj.IsObject() || !gjson.Valid(obj.Raw) {
		return gjson.Result{}, false
	}
	return obj, true
}

func ParseResult(in *GraphState) (*GraphState, error) {
	verificationRequired := in.Prompt.VerificationRequired()

	a, err := ParseAnalysis(in.RawResponse, verificationRequired)
	if err != nil {
		log.Error().Err(err).
			Int64("message_id", in.Message.ID).
			Str("raw", in.RawResponse).
			Msg("agent response unusable, using fallback analysis")
		in.Analysis = domain.FallbackAnalysis(in.RawResponse, verificationRequired)
		in.Parsed = false
		return in, nil
	}

	in.Analysis = a
	in.Parsed = true
	return in, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, v := range r.Array() {
		if item := strings.TrimSpace(v.String()); item != "" {
			out = append(out, item)
		}
	}
	return out
}
