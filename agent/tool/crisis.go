package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
	metricsx "github.com/tanpawarit/brand-intelligence-agent/pkg/metrics"
)

const (
	ToolEscalateToManager = "escalateToManager"
	ToolCheckHistory      = "checkHistory"

	historyLimit = 3
)

var (
	_ einotool.InvokableTool = (*escalateTool)(nil)
	_ einotool.InvokableTool = (*historyTool)(nil)
)

// CrisisTools returns the capabilities offered to the classification agent.
// checkHistory is bound to filter and can only see that customer's history for that brand.
func CrisisTools(kb contractx.KnowledgeBase, filter domain.RetrievalFilter) []einotool.BaseTool {
	return []einotool.BaseTool{
		&escalateTool{newID: uuid.NewString},
		&historyTool{kb: kb, filter: filter},
	}
}

type escalateTool struct {
	newID func() string
}

type escalateArgs struct {
	Reason       string `json:"reason"`
	UrgencyLevel string `json:"urgencyLevel"`
}

func (t *escalateTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolEscalateToManager,
		Desc: "Escalate a critical customer complaint or crisis to the human crisis management team.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"reason":       {Type: schema.String, Desc: "Why the message needs escalation", Required: true},
			"urgencyLevel": {Type: schema.String, Desc: "Urgency level, e.g. LOW, MEDIUM, HIGH, CRITICAL", Required: true},
		}),
	}, nil
}

func (t *escalateTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args escalateArgs
	if err := decodeArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	urgency := strings.ToUpper(strings.TrimSpace(args.UrgencyLevel))
	if urgency == "" {
		urgency = "UNSPECIFIED"
	}

	incidentID := t.newID()
	metricsx.Escalations.WithLabelValues(urgency).Inc()
	log.Warn().
		Str("incident_id", incidentID).
		Str("urgency", urgency).
		Str("reason", args.Reason).
		Msg("crisis escalated to manager")

	return "Message successfully escalated to the crisis management team. Incident ID: " + incidentID, nil
}

type historyTool struct {
	kb     contractx.KnowledgeBase
	filter domain.RetrievalFilter
}

type historyArgs struct {
	Topic string `json:"topic"`
}

func (t *historyTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolCheckHistory,
		Desc: "Look up this customer's past interactions with the brand that are similar to a topic.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"topic": {Type: schema.String, Desc: "Topic or issue to look for", Required: true},
		}),
	}, nil
}

func (t *historyTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args historyArgs
	if err := decodeArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if t.kb == nil || t.filter.IsZero() {
		return "No interaction history is available for this customer.", nil
	}

	docs, err := t.kb.Search(ctx, t.filter, args.Topic, historyLimit)
	if err != nil {
		log.Error().Err(err).Str("customer_id", t.filter.CustomerID().String()).Msg("history lookup failed")
		return "History lookup is unavailable right now.", nil
	}
	if len(docs) == 0 {
		return fmt.Sprintf("No similar past incidents found for topic %q.", args.Topic), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Similar past incidents for topic %q:\n", args.Topic)
	for _, d := range docs {
		b.WriteString("- ")
		b.WriteString(d.Text)
		if date := d.Metadata[domain.MetaDate]; date != "" {
			b.WriteString(" (" + date + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func decodeArgs(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: invalid tool arguments: %v", contractx.ErrSchemaViolation, err)
	}
	return nil
}
