package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/brand-intelligence-agent/pkg/config"
	logx "github.com/tanpawarit/brand-intelligence-agent/pkg/logger"
	_ "github.com/tanpawarit/brand-intelligence-agent/pkg/logger/autoload"
)

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "serve"
	}
	if cmd == "mcp" {
		// stdout carries the MCP protocol
		logx.Redirect(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, *appCfg, cmd)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}

	switch cmd {
	case "serve":
		err = app.serve(ctx)
	case "consume":
		err = app.consume(ctx)
	case "mcp":
		err = app.mcp()
	default:
		log.Error().Str("command", cmd).Msg("unknown command, expected serve, consume or mcp")
		app.close()
		os.Exit(2)
	}

	app.close()
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}
