// Package refs collects research sources during a workflow run and
// resolves the inline reference tags a composed document cites them with.
package refs

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultConfidence is recorded for a supporting snippet when the
// collaborator supplies no usable confidence score.
const DefaultConfidence = 0.5

// SupportingSnippet is one piece of text a source was found to support.
type SupportingSnippet struct {
	Text       string  `json:"text_segment"`
	Confidence float64 `json:"confidence"`
}

// Reference is one collected source. ShortID is stable for the lifetime of
// the collector and is what documents cite.
type Reference struct {
	ShortID  string              `json:"short_id"`
	URL      string              `json:"url"`
	Title    string              `json:"title"`
	Domain   string              `json:"domain"`
	Snippets []SupportingSnippet `json:"supported_claims,omitempty"`
}

// Collector accumulates sources for one workflow run. The same URL always
// resolves to the same short id no matter how often it is ingested, and
// first-seen order is preserved for numbering at finalization.
type Collector struct {
	mu      sync.Mutex
	byURL   map[string]string
	sources map[string]*Reference
	order   []string
	logger  zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		byURL:   make(map[string]string),
		sources: make(map[string]*Reference),
		logger:  logger,
	}
}

// Ingest records a source and returns its short id, minting "ref-N" on
// first sight and reusing it afterwards. A non-empty snippet is appended
// to the source's supported claims; confidence values at or below zero
// fall back to DefaultConfidence. An empty title falls back to the domain.
func (c *Collector) Ingest(url, title, domain, snippet string, confidence float64) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.byURL[url]
	if !ok {
		id = fmt.Sprintf("ref-%d", len(c.order)+1)
		if title == "" {
			title = domain
		}
		c.byURL[url] = id
		c.sources[id] = &Reference{
			ShortID: id,
			URL:     url,
			Title:   title,
			Domain:  domain,
		}
		c.order = append(c.order, id)
	}

	if snippet != "" {
		if confidence <= 0 {
			confidence = DefaultConfidence
		}
		src := c.sources[id]
		src.Snippets = append(src.Snippets, SupportingSnippet{
			Text:       snippet,
			Confidence: confidence,
		})
	}
	return id
}

// Len returns how many distinct sources have been collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// List returns the collected sources in first-seen order. The returned
// values are copies.
func (c *Collector) List() []Reference {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Reference, 0, len(c.order))
	for _, id := range c.order {
		src := c.sources[id]
		ref := *src
		ref.Snippets = append([]SupportingSnippet(nil), src.Snippets...)
		out = append(out, ref)
	}
	return out
}
