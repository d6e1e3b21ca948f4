package speech

import (
	"fmt"
	"testing"
)

// recorder captures promotion order for assertions.
type recorder struct {
	starts []Entry
}

func (r *recorder) onStart(e Entry) {
	r.starts = append(r.starts, e)
}

func (r *recorder) ids() []string {
	ids := make([]string, len(r.starts))
	for i, e := range r.starts {
		ids[i] = e.AgentID
	}
	return ids
}

func TestQueue_FirstEnqueuePromotesImmediately(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "summary a")

	if got := q.Current(); got != "a" {
		t.Errorf("Current() = %q, want %q", got, "a")
	}
	if got := q.Queued(); len(got) != 0 {
		t.Errorf("Queued() = %v, want empty", got)
	}
	if len(rec.starts) != 1 || rec.starts[0].AgentID != "a" || rec.starts[0].Text != "summary a" {
		t.Errorf("starts = %+v, want one entry for a", rec.starts)
	}
}

func TestQueue_EnqueueIdempotent(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	for i := 0; i < 3; i++ {
		q.Enqueue("b", "text b")
	}

	queued := q.Queued()
	if len(queued) != 1 || queued[0] != "b" {
		t.Errorf("Queued() = %v, want [b]", queued)
	}
}

func TestQueue_EnqueueCurrentSpeakerIsNoOp(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("a", "")

	if got := q.Queued(); len(got) != 0 {
		t.Errorf("Queued() = %v, want empty", got)
	}
	if len(rec.starts) != 1 {
		t.Errorf("onStart fired %d times, want 1", len(rec.starts))
	}
}

func TestQueue_FIFOPromotionOrder(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Enqueue("c", "")
	q.Finish()
	q.Finish()
	q.Finish()

	want := []string{"a", "b", "c"}
	got := rec.ids()
	if len(got) != len(want) {
		t.Fatalf("starts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("starts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if q.Current() != "" {
		t.Errorf("Current() = %q, want empty after final Finish", q.Current())
	}
}

func TestQueue_PromoteJumpsQueue(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("x", "")
	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Enqueue("c", "")

	q.Promote("c", "")
	q.Finish()

	got := rec.ids()
	if len(got) != 2 || got[1] != "c" {
		t.Fatalf("starts = %v, want [x c]", got)
	}
	queued := q.Queued()
	if len(queued) != 2 || queued[0] != "a" || queued[1] != "b" {
		t.Errorf("Queued() = %v, want [a b]", queued)
	}
}

func TestQueue_PromoteIntoFreeSlotStartsImmediately(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Enqueue("c", "")
	q.Remove("a")

	// Slot is free, b and c still queued.
	q.Promote("c", "")

	if q.Current() != "c" {
		t.Errorf("Current() = %q, want %q", q.Current(), "c")
	}
	got := rec.ids()
	if got[len(got)-1] != "c" {
		t.Errorf("last start = %q, want %q", got[len(got)-1], "c")
	}
}

func TestQueue_PromoteAbsentInsertsAtHead(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "")

	q.Promote("z", "late arrival")

	queued := q.Queued()
	if len(queued) != 2 || queued[0] != "z" || queued[1] != "b" {
		t.Errorf("Queued() = %v, want [z b]", queued)
	}
}

func TestQueue_PromoteCurrentSpeakerIsNoOp(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Promote("a", "")

	if q.Current() != "a" {
		t.Errorf("Current() = %q, want %q", q.Current(), "a")
	}
	queued := q.Queued()
	if len(queued) != 1 || queued[0] != "b" {
		t.Errorf("Queued() = %v, want [b]", queued)
	}
	if len(rec.starts) != 1 {
		t.Errorf("onStart fired %d times, want 1", len(rec.starts))
	}
}

func TestQueue_FinishIdempotent(t *testing.T) {
	q := NewQueue(nil)

	// No speaker, no queue: repeated Finish must be harmless.
	q.Finish()
	q.Finish()

	if q.Current() != "" {
		t.Errorf("Current() = %q, want empty", q.Current())
	}
}

func TestQueue_AtMostOneSpeaking(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	check := func(step string) {
		t.Helper()
		current := q.Current()
		for _, id := range q.Queued() {
			if id == current {
				t.Errorf("%s: %q is speaking and queued at once", step, id)
			}
		}
	}

	ops := []struct {
		name string
		call func()
	}{
		{"enqueue a", func() { q.Enqueue("a", "") }},
		{"enqueue b", func() { q.Enqueue("b", "") }},
		{"promote b", func() { q.Promote("b", "") }},
		{"enqueue c", func() { q.Enqueue("c", "") }},
		{"finish", func() { q.Finish() }},
		{"promote c", func() { q.Promote("c", "") }},
		{"enqueue a again", func() { q.Enqueue("a", "") }},
		{"finish", func() { q.Finish() }},
		{"finish", func() { q.Finish() }},
		{"finish", func() { q.Finish() }},
	}
	for i, op := range ops {
		op.call()
		check(fmt.Sprintf("step %d (%s)", i, op.name))
	}
}

func TestQueue_RemoveCurrentDoesNotAutoPromote(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "")

	q.Remove("a")

	if q.Current() != "" {
		t.Errorf("Current() = %q, want empty after removing speaker", q.Current())
	}
	queued := q.Queued()
	if len(queued) != 1 || queued[0] != "b" {
		t.Errorf("Queued() = %v, want [b]", queued)
	}

	q.Finish()
	if q.Current() != "b" {
		t.Errorf("Current() = %q, want %q after Finish", q.Current(), "b")
	}
}

func TestQueue_RemoveQueuedAgent(t *testing.T) {
	q := NewQueue(nil)

	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Enqueue("c", "")

	q.Remove("b")

	queued := q.Queued()
	if len(queued) != 1 || queued[0] != "c" {
		t.Errorf("Queued() = %v, want [c]", queued)
	}
}

func TestQueue_RemoveUnknownIsNoOp(t *testing.T) {
	q := NewQueue(nil)
	q.Enqueue("a", "")

	q.Remove("ghost")

	if q.Current() != "a" {
		t.Errorf("Current() = %q, want %q", q.Current(), "a")
	}
}

func TestQueue_UpdateText(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec.onStart)

	q.Enqueue("a", "")
	q.Enqueue("b", "draft")

	if !q.UpdateText("b", "refined") {
		t.Error("UpdateText for queued agent should return true")
	}
	if q.UpdateText("a", "x") {
		t.Error("UpdateText for the current speaker should return false")
	}
	if q.UpdateText("ghost", "x") {
		t.Error("UpdateText for unknown agent should return false")
	}

	q.Finish()
	last := rec.starts[len(rec.starts)-1]
	if last.AgentID != "b" || last.Text != "refined" {
		t.Errorf("promoted entry = %+v, want b with refined text", last)
	}
}

func TestQueue_Reset(t *testing.T) {
	q := NewQueue(nil)

	q.Enqueue("a", "")
	q.Enqueue("b", "")
	q.Reset()

	if q.Current() != "" {
		t.Errorf("Current() = %q, want empty", q.Current())
	}
	if got := q.Queued(); len(got) != 0 {
		t.Errorf("Queued() = %v, want empty", got)
	}
}
