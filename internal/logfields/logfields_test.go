package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, RunID("r1")},
		{"Stage", KeyStage, Stage("seo_scoring")},
		{"Status", KeyStatus, Status("completed")},
		{"Keyword", KeyKeyword, Keyword("espresso")},
		{"TenantID", KeyTenantID, TenantID("org")},
		{"EntityID", KeyEntityID, EntityID("a1")},
		{"Provider", KeyProvider, Provider("openai")},
		{"Model", KeyModel, Model("gpt-4o")},
		{"ScheduleName", KeySchedule, ScheduleName("weekly")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: expected key %s, got %s", c.name, c.attrKey, c.attr.Key)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := DurationMS(15); a.Value.Int64() != 15 || a.Key != KeyDurationMS {
		t.Errorf("unexpected duration attr %v", a)
	}
	if a := Progress(75); a.Value.Int64() != 75 {
		t.Errorf("unexpected progress attr %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Errorf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Errorf("expected boom, got %q", a.Value.String())
	}
}
