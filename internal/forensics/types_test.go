package forensics

import (
	"encoding/json"
	"testing"
)

func TestClassifyRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score    float64
		expected RiskLevel
	}{
		{0, RiskLow},
		{0.29999, RiskLow},
		{0.3, RiskMedium},
		{0.45, RiskMedium},
		{0.59999, RiskMedium},
		{0.6, RiskHigh},
		{1, RiskHigh},
	}
	for _, tt := range tests {
		if got := ClassifyRisk(tt.score); got != tt.expected {
			t.Errorf("ClassifyRisk(%v) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}

func TestIsPotentiallyEdited(t *testing.T) {
	t.Parallel()

	// The edited flag and the risk tier use different thresholds, so a
	// medium verdict can go either way.
	if IsPotentiallyEdited(0.35) {
		t.Error("0.35 is medium risk but must not be flagged as edited")
	}
	if IsPotentiallyEdited(0.4) {
		t.Error("threshold is exclusive")
	}
	if !IsPotentiallyEdited(0.45) {
		t.Error("0.45 must be flagged as edited")
	}
}

func TestRiskLevelJSON(t *testing.T) {
	t.Parallel()

	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		data, err := json.Marshal(level)
		if err != nil {
			t.Fatalf("marshal %s: %v", level, err)
		}
		var decoded RiskLevel
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if decoded != level {
			t.Errorf("expected %s, got %s", level, decoded)
		}
	}

	var l RiskLevel
	if err := json.Unmarshal([]byte(`"extreme"`), &l); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestVerdictJSONKeys(t *testing.T) {
	t.Parallel()

	v := Verdict{
		IndividualScores: map[AlgorithmID]float64{AlgorithmELA: 0.5},
		AlgorithmDetails: map[AlgorithmID]AlgorithmResult{
			AlgorithmELA: {Score: 0.5, Success: true, Algorithm: "Enhanced ELA"},
		},
		FinalScore: 0.5,
		RiskLevel:  RiskMedium,
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	expected := []string{"individual_scores", "algorithm_details", "final_score", "risk_level", "is_potentially_edited"}
	if len(top) != len(expected) {
		t.Errorf("expected %d top-level keys, got %d: %s", len(expected), len(top), data)
	}
	for _, k := range expected {
		if _, ok := top[k]; !ok {
			t.Errorf("missing key %q in %s", k, data)
		}
	}
	if string(top["risk_level"]) != `"medium"` {
		t.Errorf("expected risk_level \"medium\", got %s", top["risk_level"])
	}

	var details map[string]map[string]json.RawMessage
	if err := json.Unmarshal(top["algorithm_details"], &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if _, ok := details["ela"]["error"]; ok {
		t.Error("error key must be omitted for successful results")
	}
	if string(details["ela"]["algorithm_name"]) != `"Enhanced ELA"` {
		t.Errorf("unexpected algorithm_name %s", details["ela"]["algorithm_name"])
	}
}

func TestAlgorithmIDValid(t *testing.T) {
	t.Parallel()

	for _, id := range AllAlgorithms() {
		if !id.Valid() {
			t.Errorf("expected %s to be valid", id)
		}
	}
	if AlgorithmID("enhanced_ela").Valid() {
		t.Error("expected unknown id to be invalid")
	}
}
