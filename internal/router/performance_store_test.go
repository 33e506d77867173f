package router

import "testing"

func TestSQLitePerformanceStoreOrdering(t *testing.T) {
	store, err := OpenSQLitePerformanceStore(":memory:", "success_rate")
	if err != nil {
		t.Fatalf("OpenSQLitePerformanceStore() error = %v", err)
	}
	defer store.Close()

	records := []PerformanceRecord{
		{StrategyHash: "low", InputClass: ClassQuery, LLMModelID: "m1", Metrics: map[string]float64{"success_rate": 0.5}, LatencyMS: 100, Cost: 1},
		{StrategyHash: "high", InputClass: ClassQuery, LLMModelID: "m1", Metrics: map[string]float64{"success_rate": 0.9}, LatencyMS: 200, Cost: 2},
		{StrategyHash: "other_model", InputClass: ClassQuery, LLMModelID: "m2", Metrics: map[string]float64{"success_rate": 0.99}, LatencyMS: 50, Cost: 1},
	}
	for _, r := range records {
		if err := store.RecordPerformance(r); err != nil {
			t.Fatalf("RecordPerformance() error = %v", err)
		}
	}

	hash, ok := store.BestStrategyHash(ClassQuery, "m1")
	if !ok || hash != "high" {
		t.Fatalf("expected best hash %q, got %q (ok=%v)", "high", hash, ok)
	}
}

func TestSQLitePerformanceStoreNoMatch(t *testing.T) {
	store, err := OpenSQLitePerformanceStore(":memory:", "success_rate")
	if err != nil {
		t.Fatalf("OpenSQLitePerformanceStore() error = %v", err)
	}
	defer store.Close()

	if _, ok := store.BestStrategyHash(ClassQuery, "unknown-model"); ok {
		t.Fatal("expected no match for an unrecorded model")
	}
}
