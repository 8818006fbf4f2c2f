package envutil

import (
	"testing"
	"time"
)

func TestHelpersFallBackToDefaults(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "nope")
	t.Setenv("ENVUTIL_EMPTY", "  ")

	if got := Int("ENVUTIL_INT", 7, nil); got != 7 {
		t.Fatalf("Int: got %d want 7", got)
	}
	if got := String("ENVUTIL_EMPTY", "def", nil); got != "def" {
		t.Fatalf("String: got %q want def", got)
	}
	if got := Bool("ENVUTIL_MISSING", true, nil); !got {
		t.Fatalf("Bool: expected default true")
	}
}

func TestHelpersParseValues(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "12")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	t.Setenv("ENVUTIL_SECS", "30")
	t.Setenv("ENVUTIL_DUR", "2m")

	if got := Int("ENVUTIL_INT", 0, nil); got != 12 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Bool("ENVUTIL_BOOL", true, nil); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Float("ENVUTIL_FLOAT", 0, nil); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if got := Duration("ENVUTIL_SECS", 0, nil); got != 30*time.Second {
		t.Fatalf("Duration secs: got %v", got)
	}
	if got := Duration("ENVUTIL_DUR", 0, nil); got != 2*time.Minute {
		t.Fatalf("Duration: got %v", got)
	}
}
