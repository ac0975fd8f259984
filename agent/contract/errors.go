package contract

import (
	"errors"

	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var (
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrEmptyReply        = errors.New("model returned empty reply")
	ErrInvalidTransition = domain.ErrInvalidTransition
)
