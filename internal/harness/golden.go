package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/picongpu/picci/internal/canonical"
)

// Snapshot renders a result as canonical JSON for golden comparison.
func Snapshot(r *Result) ([]byte, error) {
	comparison := map[string]any{
		"min_difference":   r.Comparison.MinDifference,
		"percentage":       r.Comparison.Percentage,
		"acceptance_range": []float64{r.Comparison.Range[0], r.Comparison.Range[1]},
		"pass":             r.Comparison.Pass,
	}

	snap := map[string]any{
		"run_id":     r.RunID,
		"suite":      r.Suite,
		"title":      r.Title,
		"time":       r.Time.UTC().Format(time.RFC3339),
		"acceptance": r.Acceptance,
		"theory":     r.Theory,
		"simulation": r.Simulation,
		"comparison": comparison,
		"parameters": map[string]any(r.Parameters),
	}
	if r.Author != "" {
		snap["author"] = r.Author
	}
	return canonical.Marshal(snap)
}

// AssertGolden compares the snapshot of result with
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
