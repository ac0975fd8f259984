package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/assistant"
	"github.com/tanpawarit/brand-intelligence-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	eventsx "github.com/tanpawarit/brand-intelligence-agent/agent/events"
	"github.com/tanpawarit/brand-intelligence-agent/agent/identity"
	"github.com/tanpawarit/brand-intelligence-agent/agent/knowledge"
	llmx "github.com/tanpawarit/brand-intelligence-agent/agent/llm"
	memoryx "github.com/tanpawarit/brand-intelligence-agent/agent/memory"
	promptx "github.com/tanpawarit/brand-intelligence-agent/agent/prompt"
	"github.com/tanpawarit/brand-intelligence-agent/agent/resolution"
	storex "github.com/tanpawarit/brand-intelligence-agent/agent/store"
	configx "github.com/tanpawarit/brand-intelligence-agent/pkg/config"
	openrouterx "github.com/tanpawarit/brand-intelligence-agent/pkg/openrouter"
	postgresx "github.com/tanpawarit/brand-intelligence-agent/pkg/postgres"
	qstashx "github.com/tanpawarit/brand-intelligence-agent/pkg/qstash"
	redisx "github.com/tanpawarit/brand-intelligence-agent/pkg/redis"
	upstashx "github.com/tanpawarit/brand-intelligence-agent/pkg/upstash"
	"github.com/tanpawarit/brand-intelligence-agent/transport/httpapi"
	"github.com/tanpawarit/brand-intelligence-agent/transport/mcpserver"
	"github.com/tanpawarit/brand-intelligence-agent/transport/queue"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
	driverMemory   = "memory"
)

type AppConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"postgres"`
	KnowledgeDriver string        `envconfig:"KNOWLEDGE_DRIVER" default:"postgres"`
	QStashWebhook   bool          `envconfig:"QSTASH_WEBHOOK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

func (c AppConfig) Validate() error {
	switch c.StoreDriver {
	case driverPostgres, driverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q", contractx.ErrValidation, c.StoreDriver)
	}
	switch c.KnowledgeDriver {
	case driverPostgres, driverSQLite, driverMemory:
	default:
		return fmt.Errorf("%w: unknown knowledge driver %q", contractx.ErrValidation, c.KnowledgeDriver)
	}
	return nil
}

type app struct {
	cfg AppConfig

	db      *bun.DB
	redis   *redis.Client
	qstash  *qstashx.Client
	closers []func() error

	resolver     *identity.Resolver
	orchestrator *orchestrator.Orchestrator
	workflow     *resolution.Workflow
	memory       *memoryx.Writer
}

func newApp(ctx context.Context, cfg AppConfig, cmd string) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	kb, err := a.openKnowledge(ctx, *llmCfg)
	if err != nil {
		return nil, err
	}

	registry, err := assistant.NewRegistry(ctx, *llmCfg, kb)
	if err != nil {
		return nil, err
	}

	a.resolver, err = identity.NewResolver(store)
	if err != nil {
		return nil, err
	}

	publisher, err := a.openPublisher(ctx)
	if err != nil {
		return nil, err
	}

	a.memory, err = memoryx.NewWriter(registry.Summarizer, kb, prompts, *configx.MustNew[memoryx.Config]("APP"))
	if err != nil {
		return nil, err
	}

	a.orchestrator, err = orchestrator.New(store, a.resolver, registry.Classifier, orchestrator.Config{
		Prompts:       &prompts,
		KnowledgeBase: kb,
		Memory:        a.memory,
		Publisher:     publisher,
	})
	if err != nil {
		return nil, err
	}

	a.workflow, err = resolution.New(store, registry.Resolution, publisher, prompts)
	if err != nil {
		return nil, err
	}

	if cmd == "serve" && cfg.QStashWebhook && a.qstash == nil {
		a.qstash = qstashx.MustNew(*configx.MustNew[qstashx.Config]("QSTASH"))
	}

	ok = true
	return a, nil
}

func (a *app) openStore(ctx context.Context) (contractx.Store, error) {
	if a.cfg.StoreDriver == driverMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return storex.NewMemoryStore(), nil
	}

	db, err := a.postgres(ctx)
	if err != nil {
		return nil, err
	}
	store := storex.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return store, nil
}

func (a *app) openKnowledge(ctx context.Context, llmCfg llmx.Config) (contractx.KnowledgeBase, error) {
	switch a.cfg.KnowledgeDriver {
	case driverMemory:
		return knowledge.NewMemoryBase(), nil
	case driverSQLite:
		kb, err := knowledge.NewSQLiteBase(*configx.MustNew[knowledge.SQLiteConfig]("KNOWLEDGE"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kb.Close)
		return kb, nil
	}

	db, err := a.postgres(ctx)
	if err != nil {
		return nil, err
	}
	client, err := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeClassifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	embedder, err := openrouterx.NewEmbedder(client, llmCfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	kb := knowledge.NewPostgresBase(db, embedder, *configx.MustNew[knowledge.PostgresConfig]("KNOWLEDGE"))
	if err := kb.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate knowledge base: %w", err)
	}
	return kb, nil
}

func (a *app) openPublisher(ctx context.Context) (contractx.EventPublisher, error) {
	cfg, err := configx.New[eventsx.Config]("APP")
	if err != nil {
		return nil, err
	}

	switch cfg.Sink {
	case eventsx.SinkQStash:
		a.qstash = qstashx.MustNew(*configx.MustNew[qstashx.Config]("QSTASH"))
		return eventsx.NewQStashPublisher(a.qstash, cfg.Topic)
	case eventsx.SinkUpstash:
		client := upstashx.MustNew(*configx.MustNew[upstashx.Config]("UPSTASH"))
		return eventsx.NewUpstashStreamPublisher(client, cfg.Topic, cfg.MaxLen)
	case eventsx.SinkRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return eventsx.NewRedisStreamPublisher(client, cfg.Topic, cfg.MaxLen)
	default:
		return eventsx.Noop{}, nil
	}
}

func (a *app) postgres(ctx context.Context) (*bun.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := postgresx.Open(ctx, *configx.MustNew[postgresx.Config]("POSTGRES"))
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redisx.NewClient(ctx, *configx.MustNew[redisx.Config]("REDIS"))
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func (a *app) serve(ctx context.Context) error {
	var verifier httpapi.SignatureVerifier
	if a.qstash != nil && a.cfg.QStashWebhook {
		verifier = a.qstash
	}
	handler := httpapi.New(a.orchestrator, a.workflow, a.resolver, verifier)

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (a *app) consume(ctx context.Context) error {
	client, err := a.redisClient(ctx)
	if err != nil {
		return err
	}
	consumer, err := queue.NewConsumer(client, a.orchestrator, *configx.MustNew[queue.Config]("QUEUE"))
	if err != nil {
		return err
	}
	return consumer.Run(ctx)
}

func (a *app) mcp() error {
	return mcpserver.ServeStdio(mcpserver.New(a.orchestrator, a.workflow, a.resolver))
}

func (a *app) close() {
	if a.memory != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		if err := a.memory.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("memory writer did not drain before shutdown")
		}
		cancel()
		a.memory = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close resource failed")
		}
	}
	a.closers = nil
}
