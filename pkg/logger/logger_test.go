package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestRedirectKeepsServiceField(t *testing.T) {
	Init(Config{Service: "svc-test"})
	t.Cleanup(func() { Init(DefaultConfig) })

	var buf bytes.Buffer
	Redirect(&buf)
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"service":"svc-test"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("log output = %q, want service field and message", out)
	}
}

func TestDebugLevelGate(t *testing.T) {
	Init(Config{})
	t.Cleanup(func() { Init(DefaultConfig) })

	var buf bytes.Buffer
	Redirect(&buf)
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}
}
