package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"paradigm", CategoryParadigm},
		{"  Tradition ", CategoryTradition},
		{"coding-method", CategoryCodingMethod},
		{"CODING_METHOD", CategoryCodingMethod},
		{"coding", CategoryCodingMethod},
		{"journals", CategoryJournalGuide},
		{"rejection", CategoryJournalGuide},
		{"quality", CategoryConceptTheory},
		{"theory", CategoryConceptTheory},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if err != nil {
			t.Errorf("ParseCategory(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "astrology", "paradigm theory"} {
		if _, err := ParseCategory(bad); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("ParseCategory(%q) error = %v, want ErrUnknownCategory", bad, err)
		}
	}
}

func TestCategoriesAreValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("%q not valid", c)
		}
	}
	if Category("coding").Valid() {
		t.Error("aliases must not be valid categories on their own")
	}
}

func TestEngineState(t *testing.T) {
	if got := StateBuildFailed.String(); got != "build_failed" {
		t.Errorf("String() = %q", got)
	}
	if got := EngineState(42).String(); got != "state(42)" {
		t.Errorf("String() = %q", got)
	}
	for s, settled := range map[EngineState]bool{
		StateUninitialized: false,
		StateBuilding:      false,
		StateBuildFailed:   false,
		StateReady:         true,
		StateDegraded:      true,
	} {
		if s.Settled() != settled {
			t.Errorf("%s.Settled() = %v", s, !settled)
		}
	}

	data, err := json.Marshal(Status{State: StateDegraded})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["state"] != "degraded" {
		t.Errorf("state marshalled as %v", out["state"])
	}
}

func TestIsRebuildable(t *testing.T) {
	for _, err := range []error{ErrIndexNotFound, ErrCorruptIndex, fmt.Errorf("load: %w", ErrVersionMismatch)} {
		if !IsRebuildable(err) {
			t.Errorf("IsRebuildable(%v) = false", err)
		}
	}
	for _, err := range []error{nil, ErrStorageUnavailable, ErrModelUnavailable, errors.New("other")} {
		if IsRebuildable(err) {
			t.Errorf("IsRebuildable(%v) = true", err)
		}
	}
}

func TestManifestSameBuild(t *testing.T) {
	a := Manifest{SchemaVersion: 1, ModelVersion: "m", CorpusVersion: "c", Count: 3, BuildID: "x"}
	b := Manifest{SchemaVersion: 1, ModelVersion: "m", CorpusVersion: "c"}
	if !a.SameBuild(b) {
		t.Error("count and build id must not matter")
	}
	b.CorpusVersion = "d"
	if a.SameBuild(b) {
		t.Error("different corpus must not match")
	}
}
