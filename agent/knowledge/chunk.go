package knowledge

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/schema"
)

const defaultChunkSize = 800

// splitChunks cuts text into pieces of at most size runes, preferring line and
// sentence boundaries.
func splitChunks(ctx context.Context, text string, size int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if size <= 0 {
		size = defaultChunkSize
	}

	splitter, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:  size,
		Separators: []string{"\n", ". ", "! ", "? ", " "},
		LenFunc:    utf8.RuneCountInString,
		KeepType:   recursive.KeepTypeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: create splitter: %w", err)
	}
	docs, err := splitter.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, fmt.Errorf("knowledge: split text: %w", err)
	}

	chunks := make([]string, 0, len(docs))
	for _, d := range docs {
		for _, c := range hardSplit(strings.TrimSpace(d.Content), size) {
			if c != "" {
				chunks = append(chunks, c)
			}
		}
	}
	return chunks, nil
}

// hardSplit bounds pieces the splitter could not break at a separator.
func hardSplit(s string, size int) []string {
	r := []rune(s)
	if len(r) <= size {
		return []string{s}
	}
	var out []string
	for len(r) > size {
		out = append(out, strings.TrimSpace(string(r[:size])))
		r = r[size:]
	}
	return append(out, strings.TrimSpace(string(r)))
}

func terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
