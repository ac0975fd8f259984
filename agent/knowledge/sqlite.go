package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.KnowledgeBase = (*SQLiteBase)(nil)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

type SQLiteConfig struct {
	Path      string `split_words:"true" default:"knowledge.db"`
	ChunkSize int    `split_words:"true" default:"800"`
}

// SQLiteBase is a local knowledge base backed by an FTS5 index.
type SQLiteBase struct {
	db        *sql.DB
	chunkSize int
	now       func() time.Time
}

func NewSQLiteBase(cfg SQLiteConfig) (*SQLiteBase, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = ":memory:"
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("knowledge: pragma %q: %w", p, err)
		}
	}

	b := &SQLiteBase{db: db, chunkSize: cfg.ChunkSize, now: time.Now}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge: migration: %w", err)
	}
	return b, nil
}

func (b *SQLiteBase) Close() error {
	return b.db.Close()
}

func (b *SQLiteBase) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			content     TEXT NOT NULL,
			metadata    TEXT NOT NULL,
			customer_id TEXT NOT NULL DEFAULT '',
			brand_id    TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(customer_id, brand_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			content,
			content='documents',
			content_rowid='id'
		);

		CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, content) VALUES (new.id, new.content);
		END;
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLiteBase) Ingest(ctx context.Context, text string, metadata map[string]string) error {
	chunks, err := splitChunks(ctx, text, b.chunkSize)
	if err != nil || len(chunks) == 0 {
		return err
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("knowledge: marshal metadata: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("knowledge: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := b.now().UTC().Format(time.RFC3339)
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (content, metadata, customer_id, brand_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			c, string(meta), metadata[domain.MetaCustomerID], metadata[domain.MetaBrandID], now,
		); err != nil {
			return fmt.Errorf("knowledge: insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

func (b *SQLiteBase) Search(ctx context.Context, filter domain.RetrievalFilter, query string, k int) ([]contractx.Document, error) {
	if filter.IsZero() {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	customerID, brandID := filter.CustomerID().String(), filter.BrandID().String()

	var (
		rows *sql.Rows
		err  error
	)
	if fts := sanitizeFTS(query); fts != "" {
		rows, err = b.db.QueryContext(ctx, `
			SELECT d.id, d.content, d.metadata, bm25(documents_fts) AS rank
			FROM documents_fts
			JOIN documents d ON d.id = documents_fts.rowid
			WHERE documents_fts MATCH ? AND d.customer_id = ? AND d.brand_id = ?
			ORDER BY rank
			LIMIT ?`, fts, customerID, brandID, k)
	} else {
		rows, err = b.db.QueryContext(ctx, `
			SELECT id, content, metadata, 0 AS rank
			FROM documents
			WHERE customer_id = ? AND brand_id = ?
			ORDER BY id DESC
			LIMIT ?`, customerID, brandID, k)
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge: search: %w", err)
	}
	defer rows.Close()

	var out []contractx.Document
	for rows.Next() {
		var (
			id      int64
			content string
			rawMeta string
			rank    float64
		)
		if err := rows.Scan(&id, &content, &rawMeta, &rank); err != nil {
			return nil, fmt.Errorf("knowledge: scan: %w", err)
		}
		meta := map[string]string{}
		if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
			return nil, fmt.Errorf("knowledge: decode metadata: %w", err)
		}
		if !filter.Matches(meta) {
			continue
		}
		out = append(out, contractx.Document{
			ID:       strconv.FormatInt(id, 10),
			Text:     content,
			Metadata: meta,
			Score:    -rank,
		})
	}
	return out, rows.Err()
}

// sanitizeFTS quotes each term and ORs them so any overlapping word can match.
// "late delivery" → `"late" OR "delivery"`
func sanitizeFTS(query string) string {
	words := terms(query)
	for i, w := range words {
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " OR ")
}
