package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
)

func reviewFixture(t *testing.T) (*healing.Tracker, string) {
	t.Helper()
	tr := healing.NewTracker()
	key := tr.RecordEvent(healing.Event{
		ScenarioID: "checkout",
		StepID:     "click-pay",
		RunID:      "run-1",
		Original:   schema.LocatorStrategy{Type: "testId", Value: "pay"},
		Healed:     schema.LocatorStrategy{Type: "css", Value: "#pay"},
		Confidence: 0.8,
	})
	return tr, key
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewModel_ApproveWithNote(t *testing.T) {
	tr, key := reviewFixture(t)
	m := NewReviewModel(ReviewConfig{Tracker: tr, Reviewer: "dev"})

	updated, _ := m.Update(keyRunes("a"))
	rm := updated.(ReviewModel)
	if !rm.noteOpen {
		t.Fatal("note form did not open on approve key")
	}

	updated, _ = rm.Update(keyRunes("looks right"))
	rm = updated.(ReviewModel)

	updated, _ = rm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm = updated.(ReviewModel)
	if rm.noteOpen {
		t.Error("note form still open after submit")
	}

	d := tr.Decision(key)
	if d == nil {
		t.Fatal("no decision recorded")
	}
	if d.Status != healing.StatusApproved {
		t.Errorf("decision status = %q, want approved", d.Status)
	}
	if d.Reviewer != "dev" {
		t.Errorf("reviewer = %q, want dev", d.Reviewer)
	}
	if d.Note != "looks right" {
		t.Errorf("note = %q, want looks right", d.Note)
	}
}

func TestReviewModel_RejectWithoutNote(t *testing.T) {
	tr, key := reviewFixture(t)
	m := NewReviewModel(ReviewConfig{Tracker: tr, Reviewer: "dev"})

	updated, _ := m.Update(keyRunes("r"))
	rm := updated.(ReviewModel)
	updated, _ = rm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm = updated.(ReviewModel)

	d := tr.Decision(key)
	if d == nil {
		t.Fatal("no decision recorded")
	}
	if d.Status != healing.StatusRejected {
		t.Errorf("decision status = %q, want rejected", d.Status)
	}
	if d.Note != "" {
		t.Errorf("note = %q, want empty", d.Note)
	}
}

func TestReviewModel_EscCancelsDecision(t *testing.T) {
	tr, key := reviewFixture(t)
	m := NewReviewModel(ReviewConfig{Tracker: tr, Reviewer: "dev"})

	updated, _ := m.Update(keyRunes("a"))
	rm := updated.(ReviewModel)
	updated, _ = rm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	rm = updated.(ReviewModel)

	if rm.noteOpen {
		t.Error("note form still open after escape")
	}
	if d := tr.Decision(key); d != nil {
		t.Errorf("decision recorded after cancel: %v", d.Status)
	}
}

func TestReviewModel_CursorNavigation(t *testing.T) {
	tr := healing.NewTracker()
	for _, step := range []string{"s1", "s2"} {
		tr.RecordEvent(healing.Event{
			ScenarioID: "checkout",
			StepID:     step,
			RunID:      "run-1",
			Original:   schema.LocatorStrategy{Type: "testId", Value: step},
			Healed:     schema.LocatorStrategy{Type: "css", Value: "#" + step},
			Confidence: 0.8,
		})
	}
	m := NewReviewModel(ReviewConfig{Tracker: tr, Reviewer: "dev"})

	updated, _ := m.Update(keyRunes("j"))
	rm := updated.(ReviewModel)
	if rm.cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", rm.cursor)
	}
	updated, _ = rm.Update(keyRunes("j"))
	rm = updated.(ReviewModel)
	if rm.cursor != 1 {
		t.Errorf("cursor = %d past end, want 1", rm.cursor)
	}
	updated, _ = rm.Update(keyRunes("k"))
	rm = updated.(ReviewModel)
	if rm.cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", rm.cursor)
	}
}

func TestReviewModel_EmptyTracker(t *testing.T) {
	m := NewReviewModel(ReviewConfig{Tracker: healing.NewTracker(), Reviewer: "dev"})
	view := m.View()
	if !strings.Contains(view, "No healing events recorded") {
		t.Errorf("empty view missing placeholder: %q", view)
	}
}

func TestKeyBarText(t *testing.T) {
	completed := keyBarText(false, true)
	if !strings.Contains(completed, "summary") {
		t.Errorf("completed key bar missing summary hint: %q", completed)
	}
	running := keyBarText(true, false)
	if strings.Contains(running, "summary") {
		t.Errorf("running key bar should not offer summary: %q", running)
	}
	if !strings.Contains(reviewKeyBarText(true), "submit") {
		t.Error("note-open key bar missing submit hint")
	}
	if !strings.Contains(reviewKeyBarText(false), "approve") {
		t.Error("review key bar missing approve hint")
	}
}
