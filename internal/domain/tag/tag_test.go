package tag

import (
	"strings"
	"testing"
)

const testID = "6f1b9a52-3c1e-4d2a-9f5e-0b7c1d2e3f40"

func TestNew_Valid(t *testing.T) {
	tg, err := New(testID, "  Computer Vision ", true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.Name() != "Computer Vision" {
		t.Errorf("expected trimmed name, got %q", tg.Name())
	}
	if !tg.HasName("computer vision") {
		t.Error("expected case-insensitive name match")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		tag  string
	}{
		{"bad id", "not-a-uuid", "nlp"},
		{"empty name", testID, "   "},
		{"long name", testID, strings.Repeat("x", MaxNameLength+1)},
		{"separator in name", testID, "nlp,vision"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, tc.tag, false, ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
