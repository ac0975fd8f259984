package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

type fakeAnalyzer struct {
	got orchestrator.Inbound
	err error
}

func (f *fakeAnalyzer) ProcessNewMessage(ctx context.Context, in orchestrator.Inbound) (orchestrator.Outcome, error) {
	f.got = in
	if f.err != nil {
		return orchestrator.Outcome{}, f.err
	}
	return orchestrator.Outcome{
		Message: &domain.SocialMessage{ID: 1, BrandID: in.BrandID, Content: in.Content},
		Result:  &domain.AnalysisResult{ID: 10, MessageID: 1, Status: domain.StatusOpen},
		Parsed:  true,
	}, nil
}

type fakeCases struct {
	err   error
	notes string
}

func (f *fakeCases) MarkInProgress(ctx context.Context, id int64) (*domain.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AnalysisResult{ID: id, Status: domain.StatusInProgress}, nil
}

func (f *fakeCases) ResolveCase(ctx context.Context, id int64, notes string) (*domain.AnalysisResult, error) {
	f.notes = notes
	if f.err != nil {
		return nil, f.err
	}
	closing := "Thanks for your patience."
	return &domain.AnalysisResult{ID: id, Status: domain.StatusResolved, PublicClosingMessage: &closing}, nil
}

type fakeIdentities struct {
	level  domain.TrustLevel
	linked *domain.CustomerIdentity
}

func (f *fakeIdentities) Link(ctx context.Context, brandID, customerID uuid.UUID, user string, channel domain.ChannelType, level domain.TrustLevel) (*domain.CustomerIdentity, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is empty", contractx.ErrValidation)
	}
	f.linked = &domain.CustomerIdentity{BrandID: brandID, CustomerID: customerID, PlatformUserID: user, ChannelType: channel, TrustLevel: level}
	return f.linked, nil
}

func (f *fakeIdentities) TrustLevel(ctx context.Context, brandID uuid.UUID, user string, channel domain.ChannelType) domain.TrustLevel {
	return f.level
}

type fakeVerifier struct{ err error }

func (f fakeVerifier) Verify(string, []byte, string) error { return f.err }

type fixture struct {
	analyzer   *fakeAnalyzer
	cases      *fakeCases
	identities *fakeIdentities
	router     http.Handler
}

func setup(verifier SignatureVerifier) *fixture {
	f := &fixture{
		analyzer:   &fakeAnalyzer{},
		cases:      &fakeCases{},
		identities: &fakeIdentities{level: domain.TrustUnverified},
	}
	f.router = NewRouter(New(f.analyzer, f.cases, f.identities, verifier))
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestAnalyze(t *testing.T) {
	f := setup(nil)
	brand := uuid.New()

	resp := f.do(http.MethodPost, "/api/v1/analyzer/analyze", map[string]any{
		"brandId":  brand,
		"content":  "This is unacceptable!",
		"platform": "twitter",
		"user":     "@angry",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, brand, f.analyzer.got.BrandID)
	assert.Equal(t, "@angry", f.analyzer.got.PlatformUser)

	var out struct {
		Result struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(10), out.Result.ID)
	assert.Equal(t, "OPEN", out.Result.Status)
}

func TestAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: content is empty", contractx.ErrValidation), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := setup(nil)
		f.analyzer.err = tc.err
		resp := f.do(http.MethodPost, "/api/v1/analyzer/analyze", map[string]any{"content": "x"})
		assert.Equal(t, tc.want, resp.Code, tc.err.Error())
	}

	f := setup(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyzer/analyze", bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestResolveCase(t *testing.T) {
	f := setup(nil)

	resp := f.do(http.MethodPost, "/api/v1/cases/42/resolve", map[string]string{"notes": "refund issued"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "refund issued", f.cases.notes)
	assert.Contains(t, resp.Body.String(), "Thanks for your patience.")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/cases/abc/resolve", map[string]string{}).Code)

	f.cases.err = fmt.Errorf("%w: result 42", contractx.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/cases/42/resolve", map[string]string{}).Code)

	f.cases.err = fmt.Errorf("result 42: %w", contractx.ErrInvalidTransition)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/v1/cases/42/resolve", map[string]string{}).Code)
}

func TestMarkInProgress(t *testing.T) {
	f := setup(nil)

	resp := f.do(http.MethodPost, "/api/v1/cases/7/progress", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"IN_PROGRESS"`)
}

func TestLinkAndTrust(t *testing.T) {
	f := setup(nil)
	brand, customer := uuid.New(), uuid.New()

	resp := f.do(http.MethodPost, "/api/v1/identities/link", map[string]any{
		"brandId":    brand,
		"customerId": customer,
		"user":       "@angry",
		"channel":    "twitter",
		"trustLevel": "trusted",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, f.identities.linked)
	assert.Equal(t, domain.ChannelTwitter, f.identities.linked.ChannelType)
	assert.Equal(t, domain.TrustTrusted, f.identities.linked.TrustLevel)

	resp = f.do(http.MethodPost, "/api/v1/identities/link", map[string]any{
		"brandId": brand, "customerId": customer, "user": "@a", "channel": "fax", "trustLevel": "TRUSTED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodPost, "/api/v1/identities/link", map[string]any{
		"brandId": brand, "user": "@a", "channel": "EMAIL", "trustLevel": "TRUSTED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(http.MethodGet, "/api/v1/identities/trust?brandId="+brand.String()+"&user=@angry&channel=TWITTER", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var trust struct {
		TrustLevel           string `json:"trustLevel"`
		VerificationRequired bool   `json:"verificationRequired"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &trust))
	assert.Equal(t, "UNVERIFIED", trust.TrustLevel)
	assert.True(t, trust.VerificationRequired)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/identities/trust?brandId=nope&user=a&channel=EMAIL", nil).Code)
}

func TestQStashWebhook(t *testing.T) {
	body := map[string]any{"brandId": uuid.New(), "content": "hi", "platform": "EMAIL", "user": "a@b.c"}

	f := setup(fakeVerifier{})
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/v1/webhooks/qstash/analyze", body).Code)

	f = setup(fakeVerifier{err: errors.New("bad signature")})
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/webhooks/qstash/analyze", body).Code)

	f = setup(nil)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/webhooks/qstash/analyze", body).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := setup(nil)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/metrics", nil).Code)
}
