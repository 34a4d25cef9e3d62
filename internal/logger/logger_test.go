package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewInstallsGlobal(t *testing.T) {
	log, err := New("debug", "console")
	if err != nil {
		t.Fatal(err)
	}
	if zap.L() != log {
		t.Fatal("global logger not replaced")
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Fatal("debug level not enabled")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", "json"); err == nil {
		t.Fatal("expected error")
	}
}
