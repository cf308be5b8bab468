package storage

import (
	"strings"
	"testing"
)

func testMeta() RunMetadata {
	return RunMetadata{
		Motor:      "motor_1",
		Source:     "sim",
		Kp:         0.05,
		PeriodMs:   10,
		Setpoint:   8150,
		DataPoints: 3,
		Metrics:    map[string]float64{"overshoot_pct": 1.5},
	}
}

func TestSaveAndLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	times := []int64{0, 10, 20}
	positions := []int64{0, 480, 1430}
	runID, err := st.Save(testMeta(), times, positions)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(runID, "motor_1_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Kp != 0.05 || meta.Setpoint != 8150 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Metrics["overshoot_pct"] != 1.5 {
		t.Errorf("metrics not persisted: %v", meta.Metrics)
	}

	ts, ps, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 3 || ts[2] != 20 || ps[2] != 1430 {
		t.Errorf("samples mismatch: %v %v", ts, ps)
	}
}

func TestSaveRejectsMismatchedSeries(t *testing.T) {
	st := New(t.TempDir())
	st.Init()
	if _, err := st.Save(testMeta(), []int64{0, 10}, []int64{0}); err == nil {
		t.Error("expected error for mismatched series lengths")
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListFindsRuns(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	if _, err := st.Save(testMeta(), []int64{0}, []int64{0}); err != nil {
		t.Fatal(err)
	}
	meta2 := testMeta()
	meta2.Motor = "motor_2"
	if _, err := st.Save(meta2, []int64{0}, []int64{0}); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	st.Init()
	if _, err := st.Load("motor_1_0"); err == nil {
		t.Error("expected error for missing run")
	}
}
