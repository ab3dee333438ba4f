// Package pathutil implements segment normalization and path arithmetic
// shared by every other Chronicle subsystem: symbol interning, array-index
// recognition, and the ASCII Unit Separator cache-key encoding used to key
// maps by path (internal/merge3 indexes diff records with it).
package pathutil

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Path is an ordered sequence of normalized string segments from a root to a
// value. An empty Path denotes the root itself.
type Path []string

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Join returns a new path with seg appended.
func (p Path) Join(seg string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Parent splits p into its parent path and final segment. Returns false for
// the root path (len(p) == 0).
func (p Path) Parent() (Path, string, bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// Equal reports whether p and other have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is p itself or an ancestor of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// StrictlyBelow reports whether p is a strict descendant of ancestor.
func (p Path) StrictlyBelow(ancestor Path) bool {
	return len(p) > len(ancestor) && p.HasPrefix(ancestor)
}

// cacheKeySep is the ASCII Unit Separator (0x1F). It cannot appear in any
// normalized segment (enumerated keys, array indices, and sym#<N> tokens are
// all drawn from printable ASCII minus this control character), so it is safe
// as a join delimiter for path-keyed map lookups.
const cacheKeySep = "\x1f"

// CacheKey renders p as a single string suitable for use as a map key (as
// internal/merge3 does when indexing diff records by path).
func (p Path) CacheKey() string {
	if len(p) == 0 {
		return ""
	}
	return strings.Join(p, cacheKeySep)
}

// String renders a human-readable dotted form for logging/diagnostics only;
// never parsed back into a Path (bracket keys containing a dot remain a
// single segment internally regardless of how they print).
func (p Path) String() string {
	return strings.Join(p, ".")
}

// isArrayIndexString recognizes the numeric strings that denote array
// indices: "0" or a non-zero digit followed by any digits. No leading
// zeros, no sign.
func isArrayIndexString(s string) bool {
	if s == "" {
		return false
	}
	if s == "0" {
		return true
	}
	if s[0] < '1' || s[0] > '9' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsArrayIndex reports whether seg is a normalized array-index segment.
func IsArrayIndex(seg string) bool {
	return isArrayIndexString(seg)
}

// AsArrayIndex parses seg as an array index, returning ok=false if it is not
// one.
func AsArrayIndex(seg string) (int, bool) {
	if !isArrayIndexString(seg) {
		return 0, false
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Symbol is a unique-identity key, the Go analogue of a JS Symbol: two
// Symbols constructed with the same Description never compare equal, and
// each is interned to a stable path segment on first use.
type Symbol struct {
	Description string
}

// NewSymbol allocates a fresh, globally unique Symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description}
}

var (
	symbolTokens sync.Map // map[*Symbol]string
	symbolSeq    atomic.Uint64
)

// symbolToken returns the stable "sym#<N>" token for sym, allocating one on
// first sight. The table is process-wide and append-only, so concurrent
// allocation is safe without an external lock (sync.Map + atomic counter).
// Besides this table, the only process-wide mutable state in the engine is
// the root package's re-wrap registry.
func symbolToken(sym *Symbol) string {
	if tok, ok := symbolTokens.Load(sym); ok {
		return tok.(string)
	}
	n := symbolSeq.Add(1)
	tok := "sym#" + strconv.FormatUint(n, 10)
	actual, _ := symbolTokens.LoadOrStore(sym, tok)
	return actual.(string)
}

// NormalizeKey converts an arbitrary property key into its normalized path
// segment: strings and numbers stringify directly (numeric strings matching
// the array-index grammar are left as-is, since they already denote an
// index), and *Symbol keys map to their interned "sym#<N>" token.
func NormalizeKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case *Symbol:
		return symbolToken(k)
	case int:
		return strconv.Itoa(k)
	case int64:
		return strconv.FormatInt(k, 10)
	default:
		return toStringFallback(key)
	}
}

func toStringFallback(key any) string {
	if s, ok := key.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprint(key)
}
