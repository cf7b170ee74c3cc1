package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
	"github.com/ormasoftchile/splint/pkg/tui"
)

// --- review ---

var (
	reviewReviewer    string
	reviewOut         string
	reviewAutoApprove float64
)

var reviewCmd = &cobra.Command{
	Use:   "review [trace.jsonl]",
	Short: "Review healing events from a trace file",
	Long: `Rebuild the healing events recorded in a trace file and step through
them in an interactive approve/reject session. Events at or above the
auto-approve threshold are approved without asking.

Decisions are written as JSONL next to the trace (or to --out) so a
follow-up run can pin the approved strategies.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	events, err := trace.ReadFile(tracePath)
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}

	tracker, count := loadTracker(events, reviewAutoApprove)
	if count == 0 {
		fmt.Println("No healing events in trace.")
		return nil
	}

	reviewer := reviewReviewer
	if reviewer == "" {
		reviewer = os.Getenv("USER")
	}
	if reviewer == "" {
		reviewer = "reviewer"
	}

	fmt.Printf("%d healing event(s), %d pending review.\n", count, len(tracker.PendingEvents()))
	if err := tui.Review(tui.ReviewConfig{Tracker: tracker, Reviewer: reviewer}); err != nil {
		return fmt.Errorf("review session: %w", err)
	}

	outPath := reviewOut
	if outPath == "" {
		outPath = strings.TrimSuffix(tracePath, ".jsonl") + ".decisions.jsonl"
	}
	counts, err := writeDecisions(outPath, tracker)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Decisions written: %s (%d approved, %d auto-approved, %d rejected, %d pending)\n",
		outPath, counts[healing.StatusApproved], counts[healing.StatusAutoApproved],
		counts[healing.StatusRejected], counts[healing.StatusPending])
	return nil
}

// loadTracker rebuilds a tracker from the step_healed events of a trace
// stream. The threshold applies at record time, so a review session can
// re-triage the same trace under a stricter one.
func loadTracker(events []trace.Event, threshold float64) (*healing.Tracker, int) {
	tracker := healing.NewTracker()
	tracker.SetAutoApproveThreshold(threshold)
	count := 0
	for _, evt := range events {
		healEvt, _, ok := trace.HealedEvent(evt)
		if !ok {
			continue
		}
		tracker.RecordEvent(healEvt)
		count++
	}
	return tracker, count
}

// decisionRecord is one line of the decisions JSONL file.
type decisionRecord struct {
	EventID    string                 `json:"event_id"`
	ScenarioID string                 `json:"scenario_id"`
	StepID     string                 `json:"step_id"`
	Original   schema.LocatorStrategy `json:"original"`
	Healed     schema.LocatorStrategy `json:"healed"`
	Confidence float64                `json:"confidence"`
	Status     string                 `json:"status"`
	Decision   *healing.Decision      `json:"decision,omitempty"`
}

// writeDecisions writes one JSONL record per healing event and returns the
// decision status counts. The file is rewritten whole; a re-review replaces
// earlier decisions.
func writeDecisions(path string, tracker *healing.Tracker) (map[healing.DecisionStatus]int, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create decisions file: %w", err)
	}
	defer f.Close()

	counts := make(map[healing.DecisionStatus]int)
	enc := json.NewEncoder(f)
	for _, evt := range tracker.Events() {
		key := evt.Key()
		status := healing.StatusPending
		d := tracker.Decision(key)
		if d != nil {
			status = d.Status
		}
		counts[status]++
		rec := decisionRecord{
			EventID:    key,
			ScenarioID: evt.ScenarioID,
			StepID:     evt.StepID,
			Original:   evt.Original,
			Healed:     evt.Healed,
			Confidence: evt.Confidence,
			Status:     string(status),
			Decision:   d,
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("write decision: %w", err)
		}
	}
	return counts, nil
}

func init() {
	reviewCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer name recorded on decisions (default: $USER)")
	reviewCmd.Flags().StringVar(&reviewOut, "out", "", "Decisions output path (default: <trace>.decisions.jsonl)")
	reviewCmd.Flags().Float64Var(&reviewAutoApprove, "auto-approve", healing.DefaultAutoApproveThreshold, "Auto-approve events at or above this confidence")
	rootCmd.AddCommand(reviewCmd)
}
