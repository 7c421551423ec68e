package ostree

import (
	"math/rand/v2"
	"sort"
	"testing"
)

func TestTreeRankMatchesSortedOrder(t *testing.T) {
	t.Parallel()

	tree := New(func(a, b int) bool { return a < b })
	r := rand.New(rand.NewPCG(7, 11))
	seen := map[int]bool{}
	var keys []int
	for len(keys) < 500 {
		k := r.IntN(10_000)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
		tree.Insert(k)
	}
	sort.Ints(keys)

	if tree.Len() != len(keys) {
		t.Fatalf("expected len %d, got %d", len(keys), tree.Len())
	}
	for i, k := range keys {
		if got := tree.Rank(k); got != i {
			t.Fatalf("rank(%d): got %d want %d", k, got, i)
		}
		if got, ok := tree.At(i); !ok || got != k {
			t.Fatalf("at(%d): got %d,%v want %d", i, got, ok, k)
		}
	}
}

func TestTreeInsertReplacesEqualKey(t *testing.T) {
	t.Parallel()

	tree := New(func(a, b int) bool { return a < b })
	tree.Insert(5)
	tree.Insert(5)
	tree.Insert(3)
	if tree.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", tree.Len())
	}
}

func TestTreeDelete(t *testing.T) {
	t.Parallel()

	tree := New(func(a, b int) bool { return a < b })
	for _, k := range []int{10, 20, 30, 40} {
		tree.Insert(k)
	}
	if !tree.Delete(20) {
		t.Fatalf("expected 20 to be deleted")
	}
	if tree.Delete(25) {
		t.Fatalf("did not expect 25 to be present")
	}
	if got := tree.Rank(30); got != 1 {
		t.Fatalf("rank(30) after delete: got %d want 1", got)
	}
	if got := tree.Rank(35); got != 2 {
		t.Fatalf("rank of absent key 35: got %d want 2", got)
	}
}

func TestTreeRange(t *testing.T) {
	t.Parallel()

	tree := New(func(a, b int) bool { return a > b })
	for _, k := range []int{1, 2, 3, 4, 5} {
		tree.Insert(k)
	}

	var got []int
	tree.Range(1, 3, func(_ int, k int) bool {
		got = append(got, k)
		return true
	})
	want := []int{4, 3, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
