package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger; must not panic
	SetLogger(nil)
	Logf("test message")
}

func TestSetDebug(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetDebug(false)
	}()

	var lines []string
	SetLogger(func(format string, v ...interface{}) { lines = append(lines, format) })

	Debugf("hidden")
	if len(lines) != 0 {
		t.Fatalf("Debugf logged while debug disabled: %v", lines)
	}

	SetDebug(true)
	Debugf("visible")
	if len(lines) != 1 {
		t.Fatalf("expected 1 debug line, got %d", len(lines))
	}

	SetDebug(false)
	Debugf("hidden again")
	if len(lines) != 1 {
		t.Fatalf("Debugf logged after debug disabled")
	}
}
