package logx

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `split_words:"true" default:"brand-intelligence-agent"`
}

var DefaultConfig = Config{Service: "brand-intelligence-agent"}

var (
	mu      sync.Mutex
	current = DefaultConfig
)

// Init configures the global zerolog logger writing to stdout.
func Init(opts ...Config) {
	mu.Lock()
	defer mu.Unlock()

	if len(opts) > 0 {
		current = opts[0]
	}
	log.Logger = build(current, os.Stdout)
}

// Redirect rebuilds the global logger on w, keeping the active config.
// The MCP stdio mode needs this since stdout carries the protocol.
func Redirect(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	log.Logger = build(current, w)
}

func build(conf Config, w io.Writer) zerolog.Logger {
	if conf.PrettyFormat {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}
	return ctx.Caller().Stack().Logger()
}
