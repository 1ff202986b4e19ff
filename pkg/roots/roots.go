// Package roots implements the Roots capability (§4.5.4): the client-side
// advertisement of filesystem/workspace boundaries a server's tools and
// resources should stay within. New relative to the teacher (which never
// ran as a client role at all), grounded on the same base-URI containment
// idiom the teacher's util/file.go used for path safety checks before a
// tool touched disk.
package roots

import (
	"strings"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// Set is the frozen list of roots a client has advertised for one
// connection.
type Set struct {
	roots []protocol.Root
}

// NewSet builds a Set from the client's roots/list response.
func NewSet(roots []protocol.Root) *Set {
	out := make([]protocol.Root, len(roots))
	copy(out, roots)
	return &Set{roots: out}
}

func (s *Set) List() protocol.RootsListResult {
	return protocol.RootsListResult{Roots: s.roots}
}

// Contains reports whether uri falls under any advertised root: same
// scheme+authority, with the root's path a prefix of uri's on a `/`
// boundary (§3, §4.5.4 invariant) — no path normalization or symlink
// resolution is attempted, matching the protocol's own URI-level scoping.
// A plain string-prefix check would wrongly admit a sibling directory
// whose name happens to extend the root's (e.g. root
// "file:///home/user/project" must not contain
// "file:///home/user/project2/secret").
func (s *Set) Contains(uri string) bool {
	for _, r := range s.roots {
		if !strings.HasPrefix(uri, r.URI) {
			continue
		}
		if len(uri) == len(r.URI) || uri[len(r.URI)] == '/' || strings.HasSuffix(r.URI, "/") {
			return true
		}
	}
	return false
}

// Empty reports whether no roots have been advertised — callers typically
// treat this as "no restriction" rather than "nothing is allowed".
func (s *Set) Empty() bool {
	return len(s.roots) == 0
}
