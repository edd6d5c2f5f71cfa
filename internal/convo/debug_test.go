package convo

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDump_IsValidJSON(t *testing.T) {
	c := Update(New(), "AAPL looks volatile, I'm 40 with 60% in stocks")
	dump := Dump(c)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(dump), &decoded); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if !strings.Contains(dump, "portfolioComposition") {
		t.Error("dump should contain portfolioComposition")
	}
}

func TestSet_IntCoercion(t *testing.T) {
	c, err := Set(New(), "parameters.portfolioComposition.stocks", "45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Parameters.Portfolio.Stocks != 45 {
		t.Errorf("expected stocks=45, got %d", c.Parameters.Portfolio.Stocks)
	}

	if _, err := Set(New(), "parameters.portfolioComposition.stocks", "lots"); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestSet_StringField(t *testing.T) {
	c, err := Set(New(), "userPreferences.riskTolerance", "high")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Preferences.RiskTolerance != RiskHigh {
		t.Errorf("expected riskTolerance=high, got %q", c.Preferences.RiskTolerance)
	}
}

func TestSet_UnknownPath(t *testing.T) {
	original := New()
	c, err := Set(original, "parameters.nonsense", "1")
	if err == nil {
		t.Fatal("expected error for unknown path")
	}
	if c.Parameters.Flow.Depth != original.Parameters.Flow.Depth {
		t.Error("failed Set must return the context unchanged")
	}
}

func TestSettablePaths_Sorted(t *testing.T) {
	paths := SettablePaths()
	if len(paths) == 0 {
		t.Fatal("expected settable paths")
	}
	for i := 1; i < len(paths); i++ {
		if paths[i] < paths[i-1] {
			t.Errorf("paths not sorted: %q before %q", paths[i-1], paths[i])
		}
	}
}
