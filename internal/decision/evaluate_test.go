package decision

import (
	"context"
	"sync"
	"testing"
)

// recorder collects hook events; the engine may call it from several
// goroutines during a batch.
type recorder struct {
	mu             sync.Mutex
	decisions      map[Status]int
	reasons        int
	errors         map[string]int
	batches        int
	clarifications []string
}

func newRecorder() *recorder {
	return &recorder{
		decisions: make(map[Status]int),
		errors:    make(map[string]int),
	}
}

func (r *recorder) hooks() EngineHooks {
	return EngineHooks{
		OnDecision: func(status Status, reasons int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.decisions[status]++
			r.reasons += reasons
		},
		OnBatch: func(int, float64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.batches++
		},
		OnEvaluationError: func(stage string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors[stage]++
		},
		OnClarification: func(patternID string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.clarifications = append(r.clarifications, patternID)
		},
	}
}

func TestEvaluate_Eligible(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	rec := newRecorder()
	e := NewEngine(nil, rec.hooks())

	got := e.Evaluate(context.Background(), snap, "1001")
	if got.Status != StatusEligible {
		t.Fatalf("Status = %s, want %s", got.Status, StatusEligible)
	}
	if got.DisplayName != "Orchard Lane Trust" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}
	if got.Reasons == nil || len(got.Reasons) != 0 {
		t.Errorf("Reasons = %v, want empty non-nil", got.Reasons)
	}
	if rec.decisions[StatusEligible] != 1 {
		t.Errorf("decision hook fired %d times", rec.decisions[StatusEligible])
	}
}

func TestEvaluate_NotEligibleEnriched(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	e := NewEngine(nil, EngineHooks{})

	got := e.Evaluate(context.Background(), snap, "2001")
	if got.Status != StatusNotEligible {
		t.Fatalf("Status = %s, want %s", got.Status, StatusNotEligible)
	}
	if len(got.Reasons) != 1 {
		t.Fatalf("Reasons = %d, want 1", len(got.Reasons))
	}
	r := got.Reasons[0]
	if !r.Enriched {
		t.Error("expected playbook enrichment")
	}
	if r.Meaning == "" || r.ReviewTiming != "next business day" {
		t.Errorf("enrichment fields incomplete: %+v", r)
	}
}

func TestEvaluate_NotEligibleWithoutPlaybookCoverage(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	e := NewEngine(nil, EngineHooks{})

	got := e.Evaluate(context.Background(), snap, "2003")
	if got.Status != StatusNotEligible {
		t.Fatalf("Status = %s, want %s", got.Status, StatusNotEligible)
	}
	if len(got.Reasons) != 2 {
		t.Fatalf("Reasons = %d, want 2", len(got.Reasons))
	}
	if got.Reasons[0].Enriched {
		t.Error("fraud reason has no playbook entry, must stay unenriched")
	}
	if !got.Reasons[1].Enriched {
		t.Error("recency reason has a playbook entry, must be enriched")
	}
}

func TestEvaluate_UnknownIdentifier(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	e := NewEngine(nil, EngineHooks{})

	got := e.Evaluate(context.Background(), snap, "9999")
	if got.Status != StatusCannotConfirm {
		t.Fatalf("Status = %s, want %s", got.Status, StatusCannotConfirm)
	}
	if got.Error != "" {
		t.Errorf("absence is not an error, got %q", got.Error)
	}
}

func TestEvaluate_ExtractionErrorDegrades(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	rec := newRecorder()
	e := NewEngine(nil, rec.hooks())

	got := e.Evaluate(context.Background(), snap, "2005")
	if got.Status != StatusCannotConfirm {
		t.Fatalf("Status = %s, want %s", got.Status, StatusCannotConfirm)
	}
	if got.Error == "" {
		t.Error("degraded result must carry an error annotation")
	}
	if rec.errors["extract"] != 1 {
		t.Errorf("extract error hook fired %d times, want 1", rec.errors["extract"])
	}
}

func TestEvaluate_EligibleSetWinsCollision(t *testing.T) {
	t.Parallel()

	snap := testSnapshot(t)
	e := NewEngine(nil, EngineHooks{})

	// 3001 exists in both sets with a triggering exclusion row.
	got := e.Evaluate(context.Background(), snap, "3001")
	if got.Status != StatusEligible {
		t.Fatalf("Status = %s, want %s", got.Status, StatusEligible)
	}
	if len(got.Reasons) != 0 {
		t.Errorf("eligible result carries reasons: %v", got.Reasons)
	}
	if snap.CollisionCount() != 1 {
		t.Errorf("CollisionCount = %d, want 1", snap.CollisionCount())
	}
}
