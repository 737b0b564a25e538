package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purpleaqi.log")

	if err := Init(Options{File: path}); err != nil {
		t.Fatalf("Init() unexpected error: %v", err)
	}
	Infof("sensor %s polled", "backyard")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "sensor backyard polled") {
		t.Errorf("log file does not contain the message: %s", data)
	}

	// Debug lines are dropped unless Debug is set
	Debug("hidden")
	Sync()
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("debug output written without Debug option")
	}
}

func TestFallbackLogger(t *testing.T) {
	log, baseLogger = nil, nil
	if GetSugaredLogger() == nil || GetZapLogger() == nil {
		t.Fatal("fallback logger was not created")
	}
}
