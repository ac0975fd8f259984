package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseChannelType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   ChannelType
		wantOK bool
	}{
		{in: "twitter", want: ChannelTwitter, wantOK: true},
		{in: " Reclame_Aqui ", want: ChannelReclameAqui, wantOK: true},
		{in: "EMAIL", want: ChannelEmail, wantOK: true},
		{in: "myspace", want: ChannelUnknown, wantOK: false},
		{in: "", want: ChannelUnknown, wantOK: false},
	}
	for _, tc := range cases {
		got, ok := ParseChannelType(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseChannelType(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestVerificationRequired(t *testing.T) {
	t.Parallel()

	if TrustTrusted.VerificationRequired() {
		t.Fatal("TRUSTED must not require verification")
	}
	if !TrustUnverified.VerificationRequired() {
		t.Fatal("UNVERIFIED must require verification")
	}
	if !TrustBlocked.VerificationRequired() {
		t.Fatal("BLOCKED must require verification")
	}
}

func TestCaseStatusTransitions(t *testing.T) {
	t.Parallel()

	r := &AnalysisResult{Status: StatusOpen}
	if err := r.MarkInProgress(); err != nil {
		t.Fatalf("MarkInProgress() error = %v", err)
	}
	if err := r.MarkInProgress(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second MarkInProgress() error = %v, want ErrInvalidTransition", err)
	}
	if err := r.Resolve("thanks"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.Status != StatusResolved || r.PublicClosingMessage == nil || *r.PublicClosingMessage != "thanks" {
		t.Fatalf("unexpected resolved result: %+v", r)
	}
	if err := r.Resolve("again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Resolve() on resolved error = %v, want ErrInvalidTransition", err)
	}
	if StatusResolved.CanTransitionTo(StatusOpen) {
		t.Fatal("RESOLVED must not go back to OPEN")
	}
}

func TestFallbackAnalysis(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("x", 150)
	a := FallbackAnalysis(raw, true)
	if a.Category != CategoryUncategorized || a.Sentiment != SentimentNeutral {
		t.Fatalf("unexpected fallback: %+v", a)
	}
	if a.ConfidenceScore != 0 || !a.RequiresUrgentAttention || !a.VerificationRequired {
		t.Fatalf("unexpected fallback flags: %+v", a)
	}
	if len(a.SuggestedActions) != 1 || a.SuggestedActions[0] != ActionManualReview {
		t.Fatalf("unexpected suggested actions: %#v", a.SuggestedActions)
	}
	if want := "Error parsing AI response. Raw: " + strings.Repeat("x", 100); a.Summary != want {
		t.Fatalf("summary = %q", a.Summary)
	}
	if a.Keywords == nil {
		t.Fatal("keywords must be an empty list, not nil")
	}
}

func TestRetrievalFilter(t *testing.T) {
	t.Parallel()

	if _, err := NewRetrievalFilter(uuid.Nil, uuid.New()); !errors.Is(err, ErrIncompleteFilter) {
		t.Fatalf("NewRetrievalFilter(nil customer) error = %v", err)
	}

	customer, brand := uuid.New(), uuid.New()
	f, err := NewRetrievalFilter(customer, brand)
	if err != nil {
		t.Fatalf("NewRetrievalFilter() error = %v", err)
	}

	own := map[string]string{MetaCustomerID: customer.String(), MetaBrandID: brand.String()}
	if !f.Matches(own) {
		t.Fatal("filter must match its own customer and brand")
	}
	otherBrand := map[string]string{MetaCustomerID: customer.String(), MetaBrandID: uuid.NewString()}
	if f.Matches(otherBrand) {
		t.Fatal("filter matched another brand")
	}
	otherCustomer := map[string]string{MetaCustomerID: uuid.NewString(), MetaBrandID: brand.String()}
	if f.Matches(otherCustomer) {
		t.Fatal("filter matched another customer")
	}
	if (RetrievalFilter{}).Matches(own) {
		t.Fatal("zero filter must match nothing")
	}
}

func TestNewAnalysisResultAuditRoundTrip(t *testing.T) {
	t.Parallel()

	msg := &SocialMessage{ID: 7, BrandID: uuid.New()}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := NewAnalysisResult(msg, FallbackAnalysis("", true), now)
	if err != nil {
		t.Fatalf("NewAnalysisResult() error = %v", err)
	}
	if res.MessageID != 7 || res.BrandID != msg.BrandID || res.Status != StatusOpen {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, err := res.Analysis()
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}
	if got.SuggestedActions[0] != ActionManualReview {
		t.Fatalf("audit record lost suggested actions: %#v", got.SuggestedActions)
	}
}
