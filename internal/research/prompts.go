package research

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/steward/internal/generate"
	"github.com/HendryAvila/steward/internal/refs"
)

func planPrompt(objective string) generate.Prompt {
	return generate.Prompt{
		System: "You are a research strategist. You break an objective into a focused, systematic research plan.",
		User: fmt.Sprintf(`Objective:
%s

Write a research plan for this objective as a numbered list of 3 to 5 concrete research topics, one per line. Together the topics must cover the essential angles of the objective. Return only the list, no preamble.`, objective),
	}
}

func lookupPrompt(objective, query string) generate.Prompt {
	return generate.Prompt{
		System: "You are a specialist researcher. You report factual findings together with the sources that support them.",
		User: fmt.Sprintf(`Overall objective:
%s

Research this topic: %s

Return a single raw JSON object with this shape:
{"findings": "<markdown summary of what is known about the topic>", "sources": [{"url": "...", "title": "...", "domain": "...", "snippet": "<the claim this source supports>", "confidence": 0.0}]}

Confidence is between 0 and 1. List only sources that genuinely support a claim in the findings.`, objective, query),
	}
}

func evaluatePrompt(objective, findings string) generate.Prompt {
	return generate.Prompt{
		System: "You are a demanding research reviewer. Thin or generic findings do not pass.",
		User: fmt.Sprintf(`Objective:
%s

Findings:
%s

Grade the findings against the objective. Return a single raw JSON object:
{"grade": "pass" | "fail", "comment": "<what is missing or weak>", "follow_up_items": ["<up to five queries that would close the gaps>"]}

Grade "pass" only if the findings cover the objective thoroughly enough to write the final report from.`, objective, findings),
	}
}

func composePrompt(objective, plan, findings string, sources []refs.Reference) generate.Prompt {
	return generate.Prompt{
		System: "You are a report writer. You produce polished, well structured markdown reports.",
		User: fmt.Sprintf(`Write the final report for this objective:
%s

Research plan:
%s

Findings:
%s

Available sources:
%s

Cite a source by putting the inline tag <ref id="ref-N"/> immediately after the claim it supports, using only ids from the source list above. Do not write a references section; it is appended during finalization. Return only the report markdown.`,
			objective, orPlaceholder(plan), orPlaceholder(findings), referenceCatalog(sources)),
	}
}

func referenceCatalog(sources []refs.Reference) string {
	if len(sources) == 0 {
		return "(none collected; write the report without citation tags)"
	}
	var b strings.Builder
	for _, r := range sources {
		fmt.Fprintf(&b, "%s: %s (%s)\n", r.ShortID, r.Title, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
