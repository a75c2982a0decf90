package scan

import (
	"errors"
	"testing"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

func TestSeverityWeightTableIsTotal(t *testing.T) {
	expected := map[Severity]int{
		SeverityCritical: 15,
		SeverityHigh:     10,
		SeverityMedium:   5,
		SeverityLow:      2,
		SeverityInfo:     0,
	}
	for _, sev := range Severities() {
		w, err := sev.Weight()
		if err != nil {
			t.Fatalf("severity %s has no weight: %v", sev, err)
		}
		if w < 0 {
			t.Errorf("severity %s has negative weight %d", sev, w)
		}
		if w != expected[sev] {
			t.Errorf("severity %s: expected weight %d, got %d", sev, expected[sev], w)
		}
	}
}

func TestSeverityUnknownWeightIsError(t *testing.T) {
	for _, sev := range []Severity{0, -1, 6, 42} {
		if _, err := sev.Weight(); !errors.Is(err, sharedErrors.ErrUnknownSeverity) {
			t.Errorf("severity %d: expected ErrUnknownSeverity, got %v", int(sev), err)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"CRITICAL", SeverityCritical, false},
		{"high", SeverityHigh, false},
		{" Medium ", SeverityMedium, false},
		{"LOW", SeverityLow, false},
		{"INFO", SeverityInfo, false},
		{"SEVERE", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if tt.wantErr {
			if !errors.Is(err, sharedErrors.ErrUnknownSeverity) {
				t.Errorf("ParseSeverity(%q): expected ErrUnknownSeverity, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeverity(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSeverityTextRoundTrip(t *testing.T) {
	for _, sev := range Severities() {
		text, err := sev.MarshalText()
		if err != nil {
			t.Fatalf("marshal %s: %v", sev, err)
		}
		var decoded Severity
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %s: %v", text, err)
		}
		if decoded != sev {
			t.Errorf("expected %s, got %s", sev, decoded)
		}
	}

	if _, err := Severity(0).MarshalText(); err == nil {
		t.Error("expected zero severity to refuse marshaling")
	}
}

func TestSeverityOrdinal(t *testing.T) {
	if !(SeverityCritical > SeverityHigh && SeverityHigh > SeverityMedium &&
		SeverityMedium > SeverityLow && SeverityLow > SeverityInfo) {
		t.Fatal("severities must be ordered INFO < LOW < MEDIUM < HIGH < CRITICAL")
	}
}
