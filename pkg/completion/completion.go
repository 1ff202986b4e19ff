// Package completion implements the Completion capability (§4.5.6): the
// Completable abstraction behind completion/complete, plus a fixed-list
// implementation that does case-insensitive substring filtering capped at
// 100 results. New relative to the teacher, grounded on the fuzzy
// substring-matching style of the teacher's util/strings.go helpers.
package completion

import (
	"context"
	"strings"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// maxResults caps how many values a single completion response carries
// (§4.5.6 edge case) — anything past it is summarized via HasMore rather
// than silently dropped.
const maxResults = 100

// Completable answers completion/complete for one argument.
type Completable interface {
	Complete(ctx context.Context, value string) protocol.CompletionResult
}

// Func adapts a plain function to Completable, for handlers that compute
// suggestions dynamically (e.g. querying live state) rather than from a
// static list.
type Func func(ctx context.Context, value string) protocol.CompletionResult

func (f Func) Complete(ctx context.Context, value string) protocol.CompletionResult {
	return f(ctx, value)
}

// FixedList completes against a static candidate set with a
// case-insensitive substring filter.
type FixedList struct {
	values []string
}

func NewFixedList(values ...string) *FixedList {
	return &FixedList{values: values}
}

func (l *FixedList) Complete(ctx context.Context, value string) protocol.CompletionResult {
	needle := strings.ToLower(value)
	var matches []string
	for _, v := range l.values {
		if needle == "" || strings.Contains(strings.ToLower(v), needle) {
			matches = append(matches, v)
		}
	}

	total := uint64(len(matches))
	hasMore := false
	if len(matches) > maxResults {
		matches = matches[:maxResults]
		hasMore = true
	}
	return protocol.CompletionResult{Values: matches, Total: &total, HasMore: hasMore}
}
