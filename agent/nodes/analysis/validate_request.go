package analysisnode

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	msg := in.Message
	if msg.BrandID == uuid.Nil {
		return nil, fmt.Errorf("%w: brand id is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", contractx.ErrValidation)
	}
	if msg.CustomerID == nil && strings.TrimSpace(msg.PlatformUser) == "" {
		return nil, fmt.Errorf("%w: platform user is empty", contractx.ErrValidation)
	}
	if !msg.ChannelType.Valid() {
		msg.ChannelType = domain.ChannelUnknown
	}

	now := nowFn().UTC()
	if msg.CapturedAt.IsZero() {
		msg.CapturedAt = now
	}

	return &GraphState{
		Now:     now,
		Message: &msg,
	}, nil
}
