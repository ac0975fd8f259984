package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.KnowledgeBase = (*PostgresBase)(nil)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type PostgresConfig struct {
	ChunkSize int `split_words:"true" default:"800"`
}

type documentRow struct {
	bun.BaseModel `bun:"table:knowledge_documents,alias:kd"`

	ID         uuid.UUID         `bun:"id,pk,type:uuid"`
	Content    string            `bun:"content,notnull"`
	Metadata   map[string]string `bun:"metadata,type:jsonb"`
	CustomerID string            `bun:"customer_id,notnull"`
	BrandID    string            `bun:"brand_id,notnull"`
	Embedding  pgvector.Vector   `bun:"embedding,type:vector,notnull"`
	CreatedAt  time.Time         `bun:"created_at,notnull"`

	Score float64 `bun:"score,scanonly"`
}

// PostgresBase stores embedded chunks in a pgvector column. The scope filter and the
// cosine ranking both run in SQL.
type PostgresBase struct {
	db       *bun.DB
	embedder Embedder
	cfg      PostgresConfig
	now      func() time.Time
}

func NewPostgresBase(db *bun.DB, embedder Embedder, cfg PostgresConfig) *PostgresBase {
	return &PostgresBase{db: db, embedder: embedder, cfg: cfg, now: time.Now}
}

func (b *PostgresBase) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := b.db.NewCreateTable().Model((*documentRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create knowledge table: %w", err)
	}
	if _, err := b.db.NewCreateIndex().
		Model((*documentRow)(nil)).
		Index("knowledge_documents_scope").
		IfNotExists().
		Column("customer_id", "brand_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("create knowledge scope index: %w", err)
	}
	return nil
}

func (b *PostgresBase) Ingest(ctx context.Context, text string, metadata map[string]string) error {
	chunks, err := splitChunks(ctx, text, b.cfg.ChunkSize)
	if err != nil || len(chunks) == 0 {
		return err
	}
	vectors, err := b.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	now := b.now().UTC()
	rows := make([]documentRow, 0, len(chunks))
	for i, c := range chunks {
		rows = append(rows, documentRow{
			ID:         uuid.New(),
			Content:    c,
			Metadata:   cloneMeta(metadata),
			CustomerID: metadata[domain.MetaCustomerID],
			BrandID:    metadata[domain.MetaBrandID],
			Embedding:  pgvector.NewVector(vectors[i]),
			CreatedAt:  now,
		})
	}
	if _, err := b.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert knowledge chunks: %w", err)
	}
	return nil
}

func (b *PostgresBase) Search(ctx context.Context, filter domain.RetrievalFilter, query string, k int) ([]contractx.Document, error) {
	if filter.IsZero() {
		return nil, nil
	}

	var qvec []float32
	if len(terms(query)) > 0 {
		vecs, err := b.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		if len(vecs) == 1 {
			qvec = vecs[0]
		}
	}

	var rows []documentRow
	if err := b.searchQuery(&rows, filter, qvec, k).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	out := make([]contractx.Document, 0, len(rows))
	for _, r := range rows {
		if !filter.Matches(r.Metadata) {
			continue
		}
		out = append(out, contractx.Document{
			ID:       r.ID.String(),
			Text:     r.Content,
			Metadata: r.Metadata,
			Score:    r.Score,
		})
	}
	return out, nil
}

// searchQuery ranks the whole customer and brand scope by cosine distance, or by
// recency when there is no query vector.
func (b *PostgresBase) searchQuery(rows *[]documentRow, filter domain.RetrievalFilter, qvec []float32, k int) *bun.SelectQuery {
	if k <= 0 {
		k = 5
	}
	q := b.db.NewSelect().
		Model(rows).
		Where("kd.customer_id = ?", filter.CustomerID().String()).
		Where("kd.brand_id = ?", filter.BrandID().String()).
		Limit(k)
	if len(qvec) == 0 {
		return q.OrderExpr("kd.created_at DESC")
	}
	v := pgvector.NewVector(qvec)
	return q.
		ColumnExpr("kd.*").
		ColumnExpr("1 - (kd.embedding <=> ?) AS score", v).
		OrderExpr("kd.embedding <=> ?", v)
}
