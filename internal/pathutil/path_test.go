package pathutil

import "testing"

func TestIsArrayIndex(t *testing.T) {
	cases := map[string]bool{
		"0":    true,
		"1":    true,
		"42":   true,
		"007":  false,
		"-1":   false,
		"":     false,
		"abc":  false,
		"1a":   false,
		"1000": true,
	}
	for in, want := range cases {
		if got := IsArrayIndex(in); got != want {
			t.Errorf("IsArrayIndex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSymbolTokensStableAndUnique(t *testing.T) {
	a := NewSymbol("id")
	b := NewSymbol("id")

	ta1 := symbolToken(a)
	ta2 := symbolToken(a)
	tb := symbolToken(b)

	if ta1 != ta2 {
		t.Fatalf("token for the same symbol changed: %q vs %q", ta1, ta2)
	}
	if ta1 == tb {
		t.Fatalf("two distinct symbols with identical descriptions collided: %q", ta1)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("foo"); got != "foo" {
		t.Errorf("NormalizeKey(string) = %q", got)
	}
	if got := NormalizeKey(3); got != "3" {
		t.Errorf("NormalizeKey(int) = %q", got)
	}
	sym := NewSymbol("x")
	if got := NormalizeKey(sym); got != symbolToken(sym) {
		t.Errorf("NormalizeKey(*Symbol) = %q, want %q", got, symbolToken(sym))
	}
}

func TestPathCacheKeyUnambiguous(t *testing.T) {
	p1 := Path{"a.b", "c"}
	p2 := Path{"a", "b.c"}
	if p1.CacheKey() == p2.CacheKey() {
		t.Fatalf("dotted-key collision: both paths produced %q", p1.CacheKey())
	}
}

func TestPathHasPrefixAndStrictlyBelow(t *testing.T) {
	root := Path{}
	a := Path{"a"}
	ab := Path{"a", "b"}

	if !ab.HasPrefix(a) {
		t.Error("ab should have prefix a")
	}
	if !ab.HasPrefix(root) {
		t.Error("every path has the empty prefix")
	}
	if a.StrictlyBelow(a) {
		t.Error("a path is never strictly below itself")
	}
	if !ab.StrictlyBelow(a) {
		t.Error("ab should be strictly below a")
	}
}
