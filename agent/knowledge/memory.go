package knowledge

import (
	"context"
	"sort"
	"strconv"
	"sync"

	contractx "github.com/tanpawarit/brand-intelligence-agent/agent/contract"
	"github.com/tanpawarit/brand-intelligence-agent/agent/domain"
)

var _ contractx.KnowledgeBase = (*MemoryBase)(nil)

// MemoryBase is an in-process knowledge base ranked by term overlap.
type MemoryBase struct {
	mu        sync.RWMutex
	docs      []contractx.Document
	chunkSize int
	searches  []domain.RetrievalFilter
}

func NewMemoryBase() *MemoryBase {
	return &MemoryBase{chunkSize: defaultChunkSize}
}

func (b *MemoryBase) Ingest(ctx context.Context, text string, metadata map[string]string) error {
	chunks, err := splitChunks(ctx, text, b.chunkSize)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range chunks {
		b.docs = append(b.docs, contractx.Document{
			ID:       strconv.Itoa(len(b.docs) + 1),
			Text:     c,
			Metadata: cloneMeta(metadata),
		})
	}
	return nil
}

func (b *MemoryBase) Search(_ context.Context, filter domain.RetrievalFilter, query string, k int) ([]contractx.Document, error) {
	b.mu.Lock()
	b.searches = append(b.searches, filter)
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()

	qterms := terms(query)
	type scored struct {
		doc   contractx.Document
		order int
	}
	var hits []scored
	for i, d := range b.docs {
		if !filter.Matches(d.Metadata) {
			continue
		}
		d.Score = overlap(qterms, terms(d.Text))
		d.Metadata = cloneMeta(d.Metadata)
		hits = append(hits, scored{doc: d, order: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].doc.Score != hits[j].doc.Score {
			return hits[i].doc.Score > hits[j].doc.Score
		}
		return hits[i].order > hits[j].order
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	out := make([]contractx.Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}
	return out, nil
}

// Searches returns every filter passed to Search, in call order.
func (b *MemoryBase) Searches() []domain.RetrievalFilter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.RetrievalFilter(nil), b.searches...)
}

func (b *MemoryBase) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func overlap(query, doc []string) float64 {
	if len(query) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(doc))
	for _, t := range doc {
		set[t] = struct{}{}
	}
	var hit int
	for _, t := range query {
		if _, ok := set[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(query))
}
