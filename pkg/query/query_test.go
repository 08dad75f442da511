package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type shop struct {
	Name  string
	Owner string
	Email string
	Phone string
	State string
	Seen  *time.Time
	Rank  int
}

func shops() []shop {
	return []shop{
		{Name: "Green Grocer", Owner: "Ana Ruiz", Email: "ana@green.test", Phone: "555-0101", State: "NJ", Rank: 2},
		{Name: "Fruit Hub", Owner: "Bo Chen", Email: "bo@fruithub.test", Phone: "555-0102", State: "NY", Rank: 1},
		{Name: "corner store", Owner: "Cy Green", Email: "cy@corner.test", Phone: "555-0199", State: "NJ", Rank: 2},
	}
}

func shopFields() []func(shop) string {
	return []func(shop) string{
		func(s shop) string { return s.Name },
		func(s shop) string { return s.Owner },
		func(s shop) string { return s.Email },
		func(s shop) string { return s.Phone },
	}
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	got := New[shop]().Filter(Search("  GREEN ", shopFields()...)).Apply(shops())
	if len(got) != 2 || got[0].Name != "Green Grocer" || got[1].Name != "corner store" {
		t.Fatalf("unexpected search result %+v", got)
	}
	if got := New[shop]().Filter(Search("0199", shopFields()...)).Apply(shops()); len(got) != 1 {
		t.Fatalf("expected phone match, got %+v", got)
	}
}

func TestBlankSearchReturnsEverything(t *testing.T) {
	if got := New[shop]().Filter(Search("   ", shopFields()...)).Apply(shops()); len(got) != 3 {
		t.Fatalf("blank search should match all, got %d", len(got))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := shops()
	out := New[shop]().Sort(FoldString(func(s shop) string { return s.Name })).Apply(in)
	if in[0].Name != "Green Grocer" {
		t.Fatalf("input reordered: %+v", in)
	}
	if out[0].Name != "corner store" || out[2].Name != "Green Grocer" {
		t.Fatalf("unexpected order %+v", out)
	}
}

func TestComparatorThenAndReverse(t *testing.T) {
	order := By(func(s shop) int { return s.Rank }).Reverse().Then(By(func(s shop) string { return s.Name }))
	out := New[shop]().Sort(order).Apply(shops())
	names := []string{out[0].Name, out[1].Name, out[2].Name}
	want := []string{"Green Grocer", "corner store", "Fruit Hub"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v got %v", want, names)
		}
	}
}

func TestCombinators(t *testing.T) {
	nj := Equals(func(s shop) string { return s.State }, "NJ")
	rank1 := Equals(func(s shop) int { return s.Rank }, 1)
	if got := New[shop]().Filter(Or(nj, rank1)).Apply(shops()); len(got) != 3 {
		t.Fatalf("or: expected 3, got %d", len(got))
	}
	if got := New[shop]().Filter(And(nj, Not(rank1))).Apply(shops()); len(got) != 2 {
		t.Fatalf("and/not: expected 2, got %d", len(got))
	}
	if got := New[shop]().Filter(EqualsIfSet[shop, string](func(s shop) string { return s.State }, nil)).Apply(shops()); len(got) != 3 {
		t.Fatalf("unset filter should match all, got %d", len(got))
	}
}

func TestWithinUsesSuppliedNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	soon := now.Add(10 * 24 * time.Hour)
	later := now.Add(45 * 24 * time.Hour)
	past := now.Add(-time.Hour)
	items := []shop{{Name: "soon", Seen: &soon}, {Name: "later", Seen: &later}, {Name: "past", Seen: &past}, {Name: "none"}}

	p := Within(now, 30*24*time.Hour, func(s shop) *time.Time { return s.Seen })
	got := New[shop]().Filter(p).Apply(items)
	if len(got) != 1 || got[0].Name != "soon" {
		t.Fatalf("unexpected within result %+v", got)
	}

	p = Within(now.Add(20*24*time.Hour), 30*24*time.Hour, func(s shop) *time.Time { return s.Seen })
	got = New[shop]().Filter(p).Apply(items)
	if len(got) != 1 || got[0].Name != "later" {
		t.Fatalf("window should move with now, got %+v", got)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Page(items, 1, 2); len(got) != 2 || got[0] != 2 {
		t.Fatalf("unexpected page %v", got)
	}
	if got := Page(items, 4, 10); len(got) != 1 {
		t.Fatalf("unexpected tail page %v", got)
	}
	if got := Page(items, 9, 2); len(got) != 0 {
		t.Fatalf("expected empty page past end, got %v", got)
	}
	if got := Page(items, -1, 0); len(got) != 5 {
		t.Fatalf("zero limit means all, got %v", got)
	}
}

func TestMemoRecomputesOnlyOnKeyChange(t *testing.T) {
	var m Memo[int]
	calls := 0
	compute := func() (int, error) { calls++; return calls, nil }

	key := MemoKey{Version: 1, Search: "a"}
	v1, _ := m.Get(key, compute)
	v2, _ := m.Get(key, compute)
	if v1 != 1 || v2 != 1 || calls != 1 {
		t.Fatalf("expected cached value, got %d %d calls=%d", v1, v2, calls)
	}
	if v, _ := m.Get(MemoKey{Version: 2, Search: "a"}, compute); v != 2 {
		t.Fatalf("version change should recompute, got %d", v)
	}
	if v, _ := m.Get(MemoKey{Version: 2, Search: "a", Filters: "state=NJ"}, compute); v != 3 {
		t.Fatalf("filter change should recompute, got %d", v)
	}
	m.Invalidate()
	if v, _ := m.Get(MemoKey{Version: 2, Search: "a", Filters: "state=NJ"}, compute); v != 4 {
		t.Fatalf("invalidate should recompute, got %d", v)
	}

	boom := errors.New("boom")
	if _, err := m.Get(MemoKey{Version: 9}, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if v, _ := m.Get(MemoKey{Version: 2, Search: "a", Filters: "state=NJ"}, compute); v != 4 {
		t.Fatalf("failed compute must not replace cache, got %d", v)
	}
}

func TestMemoServesCachedKeyWhileAnotherComputes(t *testing.T) {
	var m Memo[int]
	cached := MemoKey{Version: 1}
	_, err := m.Get(cached, func() (int, error) { return 7, nil })
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)
	go func() {
		v, _ := m.Get(MemoKey{Version: 2}, func() (int, error) {
			close(started)
			<-release
			return 8, nil
		})
		done <- v
	}()
	<-started

	fast := make(chan int)
	go func() {
		v, _ := m.Get(cached, func() (int, error) { return -1, nil })
		fast <- v
	}()
	select {
	case v := <-fast:
		require.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("cached read blocked behind a running compute")
	}

	close(release)
	require.Equal(t, 8, <-done)
}

func TestMemoDropsResultComputedAcrossInvalidate(t *testing.T) {
	var m Memo[int]
	key := MemoKey{Version: 3}
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Get(key, func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	m.Invalidate()
	close(release)
	<-done

	v, err := m.Get(key, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	require.Equal(t, 2, v, "stale result must not be cached after invalidate")
}
