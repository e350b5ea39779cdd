package fsm

import "testing"

type counter struct {
	Engine[*counter]
	n int
}

const (
	stIdle = iota
	stRunning
)

func newCounter() *counter {
	c := &counter{}
	c.Reset(stIdle, []Transition[*counter]{
		{From: stIdle, Guard: func(c *counter) bool { return c.n > 0 }, To: stRunning, Action: func(c *counter) { c.n *= 10 }},
		{From: stRunning, Guard: func(c *counter) bool { return c.n > 100 }, To: stIdle, Action: func(c *counter) { c.n = 0 }},
	})
	return c
}

func TestFireFirstMatchWins(t *testing.T) {
	c := newCounter()
	c.n = 1
	c.Fire(c)
	if c.State() != stRunning || c.n != 10 {
		t.Fatalf("got state=%d n=%d, want stRunning n=10", c.State(), c.n)
	}
}

func TestFireNoMatchIsNoop(t *testing.T) {
	c := newCounter()
	c.Fire(c) // n == 0, guard false, stays idle
	if c.State() != stIdle || c.n != 0 {
		t.Fatalf("got state=%d n=%d, want unchanged", c.State(), c.n)
	}
}

func TestFireOrderSignificant(t *testing.T) {
	// Two rows from the same state: first match wins even if a later
	// row would also match.
	type ctx struct {
		Engine[*ctx]
		hits []int
	}
	c := &ctx{}
	c.Reset(0, []Transition[*ctx]{
		{From: 0, Guard: func(*ctx) bool { return true }, To: 1, Action: func(c *ctx) { c.hits = append(c.hits, 1) }},
		{From: 0, Guard: func(*ctx) bool { return true }, To: 2, Action: func(c *ctx) { c.hits = append(c.hits, 2) }},
	})
	c.Fire(c)
	if c.State() != 1 || len(c.hits) != 1 || c.hits[0] != 1 {
		t.Fatalf("got state=%d hits=%v, want state=1 hits=[1]", c.State(), c.hits)
	}
}

func TestFireDeterministic(t *testing.T) {
	// Fixed guard-value vector -> Fire is a pure function of current
	// state.
	c1, c2 := newCounter(), newCounter()
	c1.n, c2.n = 5, 5
	c1.Fire(c1)
	c2.Fire(c2)
	if c1.State() != c2.State() || c1.n != c2.n {
		t.Fatalf("non-deterministic: %+v vs %+v", c1, c2)
	}
}
