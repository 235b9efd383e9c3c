package log

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestPrefixInfo(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_service_test"
	l, buf := newTestLogger(t, name)

	l.Infof("hello %s", "world")
	out := buf.String()

	if !strings.Contains(out, "INFO ["+name+"] hello world") {
		t.Fatalf("expected prefixed info line, got: %q", out)
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_specific"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Fatalf("debug message appeared while debug disabled")
	}

	EnableDebugFor(name)
	defer DisableDebugFor(name)
	l.Debugf("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Fatalf("expected debug message after enabling per-service debug; got: %q", buf.String())
	}
}

func TestDebugInheritedByChild(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_parent"
	l, buf := newTestLogger(t, name)
	child := l.Named("view-1")

	if child.Name() != name+"/view-1" {
		t.Fatalf("child name: got %q", child.Name())
	}

	child.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("child debug printed while parent debug disabled")
	}

	EnableDebugFor(name)
	defer DisableDebugFor(name)
	child.Debugf("inherited")
	if !strings.Contains(buf.String(), "[debug_parent/view-1] inherited") {
		t.Fatalf("expected inherited debug output, got: %q", buf.String())
	}
}

func TestDebugGlobal(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_service_global"
	DisableDebugFor(name)
	l, buf := newTestLogger(t, name)

	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug message appeared while global debug disabled")
	}

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("global visible")
	if !strings.Contains(buf.String(), "global visible") {
		t.Fatalf("expected debug message after enabling global debug; got: %q", buf.String())
	}
}

func TestSetLevelFiltersInfo(t *testing.T) {
	SetGlobalDebug(false)
	l, buf := newTestLogger(t, "level_service_test")

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	defer func() { _ = SetLevel("info") }()

	l.Infof("quiet")
	l.Warnf("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info printed below warn threshold: %q", out)
	}
	if !strings.Contains(out, "WARN [level_service_test] loud") {
		t.Fatalf("expected warn line, got: %q", out)
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
