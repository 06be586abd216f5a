package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConfig("warn", "json", &buf)
	l.Printf("hidden %d", 1)
	l.Warnf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"message":"shown 2"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Printf("x")
	l.Warnf("x")
	l.Errorf("x")
	if l.With("k", "v") != nil {
		t.Fatalf("expected nil child logger")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password error")
	}
	if err := ValidatePassword("has space 123"); err == nil {
		t.Fatalf("expected whitespace error")
	}
	if err := ValidatePassword(strings.Repeat("a", 129)); err == nil {
		t.Fatalf("expected long password error")
	}
	if err := ValidatePassword("goodpass1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("user@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "not-an-email", "Name <user@example.com>"} {
		if err := ValidateEmail(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if NormalizeEmail("  User@Example.COM ") != "user@example.com" {
		t.Fatalf("normalize failed")
	}
}

func TestRandStringLength(t *testing.T) {
	a, err := RandString(16)
	if err != nil {
		t.Fatalf("rand: %v", err)
	}
	b, _ := RandString(16)
	if a == b || len(a) == 0 {
		t.Fatalf("unexpected rand strings %q %q", a, b)
	}
}
