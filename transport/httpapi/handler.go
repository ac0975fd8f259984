package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

const maxBodyBytes = 1 << 20

type Analyzer interface {
	ProcessNewMessage(ctx context.Context, in orchestrator.Inbound) (orchestrator.Outcome, error)
}

type Cases interface {
	MarkInProgress(ctx context.Context, resultID int64) (*domain.AnalysisResult, error)
	ResolveCase(ctx context.Context, resultID int64, notes string) (*domain.AnalysisResult, error)
}

type Identities interface {
	Link(ctx context.Context, brandID, customerID uuid.UUID, platformUserID string, channel domain.ChannelType, level domain.TrustLevel) (*domain.CustomerIdentity, error)
	TrustLevel(ctx context.Context, brandID uuid.UUID, platformUserID string, channel domain.ChannelType) domain.TrustLevel
}

// SignatureVerifier authenticates queue webhook deliveries.
type SignatureVerifier interface {
	Verify(signature string, body []byte, url string) error
}

type Handler struct {
	analyzer   Analyzer
	cases      Cases
	identities Identities
	verifier   SignatureVerifier
}

// New builds the handler. verifier may be nil, which disables the webhook route.
func New(analyzer Analyzer, cases Cases, identities Identities, verifier SignatureVerifier) *Handler {
	return &Handler{
		analyzer:   analyzer,
		cases:      cases,
		identities: identities,
		verifier:   verifier,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyzer/analyze", h.handleAnalyze)
	r.Post("/cases/{resultID}/progress", h.handleProgress)
	r.Post("/cases/{resultID}/resolve", h.handleResolve)
	r.Post("/identities/link", h.handleLink)
	r.Get("/identities/trust", h.handleTrust)
	if h.verifier != nil {
		r.Post("/webhooks/qstash/analyze", h.handleQStashAnalyze)
	}
}

type analyzeRequest struct {
	BrandID  uuid.UUID `json:"brandId"`
	Content  string    `json:"content"`
	Platform string    `json:"platform"`
	User     string    `json:"user"`
}

func (req analyzeRequest) inbound() orchestrator.Inbound {
	return orchestrator.Inbound{
		BrandID:      req.BrandID,
		Content:      req.Content,
		Platform:     req.Platform,
		PlatformUser: req.User,
	}
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzeRequest
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.analyzer.ProcessNewMessage(r.Context(), payload.inbound())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleQStashAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.verifier.Verify(r.Header.Get("Upstash-Signature"), body, ""); err != nil {
		log.Warn().Err(err).Msg("rejected qstash delivery")
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload analyzeRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.analyzer.ProcessNewMessage(r.Context(), payload.inbound())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := resultID(w, r)
	if !ok {
		return
	}
	res, err := h.cases.MarkInProgress(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := resultID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.cases.ResolveCase(r.Context(), id, payload.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BrandID    uuid.UUID `json:"brandId"`
		CustomerID uuid.UUID `json:"customerId"`
		User       string    `json:"user"`
		Channel    string    `json:"channel"`
		TrustLevel string    `json:"trustLevel"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, ok := domain.ParseChannelType(payload.Channel)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	level, ok := domain.ParseTrustLevel(payload.TrustLevel)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown trust level")
		return
	}

	identity, err := h.identities.Link(r.Context(), payload.BrandID, payload.CustomerID, payload.User, channel, level)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, identity)
}

func (h *Handler) handleTrust(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	brandID, err := uuid.Parse(q.Get("brandId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "brandId must be a uuid")
		return
	}
	user := strings.TrimSpace(q.Get("user"))
	if user == "" {
		respondError(w, http.StatusBadRequest, "user is required")
		return
	}
	channel, ok := domain.ParseChannelType(q.Get("channel"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}

	level := h.identities.TrustLevel(r.Context(), brandID, user, channel)
	respondJSON(w, http.StatusOK, map[string]any{
		"trustLevel":           level,
		"verificationRequired": level.VerificationRequired(),
	})
}

func resultID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "resultID must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contractx.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contractx.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
