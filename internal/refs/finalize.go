package refs

import (
	"fmt"
	"regexp"
	"strings"
)

// tagPattern matches inline reference tags. The matcher is deliberately
// lenient about quoting and spacing because generated documents are sloppy
// about both: <ref id="ref-3"/>, <ref id=ref-3 >, <ref id = 'ref-3' /> all
// resolve.
var (
	tagPattern       = regexp.MustCompile(`<ref\s+id\s*=\s*["']?\s*(ref-\d+)\s*["']?\s*/?>`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:])`)
)

// Finalize resolves the inline reference tags of a composed document.
// Known tags become plain numbered markers [k], numbered by first-seen
// ingest order among the sources the document actually cites; unknown tags
// are dropped with a warning. A references section listing each cited
// source once is appended. A document with no tags at all comes back
// byte-identical, so running Finalize on its own output is a no-op.
func (c *Collector) Finalize(doc string) string {
	if !tagPattern.MatchString(doc) {
		return doc
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Number the cited sources by their ingest order.
	cited := make(map[string]bool)
	for _, m := range tagPattern.FindAllStringSubmatch(doc, -1) {
		if _, ok := c.sources[m[1]]; ok {
			cited[m[1]] = true
		}
	}
	numbers := make(map[string]int, len(cited))
	for _, id := range c.order {
		if cited[id] {
			numbers[id] = len(numbers) + 1
		}
	}

	out := tagPattern.ReplaceAllStringFunc(doc, func(tag string) string {
		id := tagPattern.FindStringSubmatch(tag)[1]
		n, ok := numbers[id]
		if !ok {
			c.logger.Warn().
				Str("tag", tag).
				Msg("unknown reference tag removed")
			return ""
		}
		return fmt.Sprintf("[%d]", n)
	})
	out = spaceBeforePunct.ReplaceAllString(out, "$1")

	if len(numbers) == 0 {
		return out
	}

	var b strings.Builder
	b.WriteString(out)
	b.WriteString("\n\n## References\n\n")
	for _, id := range c.order {
		n, ok := numbers[id]
		if !ok {
			continue
		}
		src := c.sources[id]
		fmt.Fprintf(&b, "%d. [%s](%s)", n, src.Title, src.URL)
		if src.Domain != "" && src.Domain != src.Title {
			fmt.Fprintf(&b, " (%s)", src.Domain)
		}
		b.WriteString("\n")
	}
	return b.String()
}
