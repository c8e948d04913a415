// Package ground assembles retrieval results into the grounded context
// block handed to the model. The block format and the sentinel strings are
// part of the prompt contract: the system prompt instructs the model to
// treat them as authoritative signals about retrieval outcome.
package ground

import (
	"fmt"
	"strings"

	"github.com/retriva/retriva/internal/vector"
)

// NoRelevantContextFound is returned to the model when retrieval succeeds
// but matches nothing. It tells the model to say the answer is not
// available rather than improvise.
const NoRelevantContextFound = "NO_RELEVANT_CONTEXT_FOUND"

// errorPrefix marks a retrieval failure surfaced to the model as text.
const errorPrefix = "ERROR_RETRIEVING_CONTEXT: "

// Context is the assembled grounding block for one retrieval.
type Context struct {
	// Text is the full block sent to the model: numbered SOURCE sections
	// followed by a deduplicated source list, or NoRelevantContextFound.
	Text string

	// Sources lists the distinct source names in first-occurrence order.
	Sources []string

	// Empty is true when retrieval matched nothing.
	Empty bool
}

// Assemble builds the grounding block from fused retrieval results.
//
// Each result becomes a numbered section carrying its source file name and
// chunk text. Results without a file_name metadata entry fall back to a
// positional "Document N" label. The trailing SOURCES list is deduplicated
// by first occurrence, so several chunks of one file cite it once.
func Assemble(results []vector.Result) Context {
	if len(results) == 0 {
		return Context{Text: NoRelevantContextFound, Empty: true}
	}

	parts := make([]string, 0, len(results))
	var sources []string
	seen := make(map[string]bool)

	for i, res := range results {
		source := res.Record.Metadata["file_name"]
		if source == "" {
			source = fmt.Sprintf("Document %d", i+1)
		}
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}

		parts = append(parts, fmt.Sprintf("--- SOURCE %d ---\nFile: %s\n%s\n",
			i+1, source, res.Record.Content))
	}

	var b strings.Builder
	b.WriteString("RETRIEVED CONTEXT:\n\n")
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n\nSOURCES:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	return Context{
		Text:    strings.TrimRight(b.String(), "\n"),
		Sources: sources,
	}
}

// ErrorText formats a retrieval failure for the model. The failure travels
// as tool output text, not as a Go error: the agent loop keeps running and
// the model explains that retrieval failed.
func ErrorText(err error) string {
	return errorPrefix + err.Error()
}

// IsSentinel reports whether a tool output is one of the grounding
// sentinels rather than assembled context.
func IsSentinel(text string) bool {
	return text == NoRelevantContextFound || strings.HasPrefix(text, errorPrefix)
}
