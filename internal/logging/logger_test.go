package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	WithComponent(logger, "ingest").Info("asset verified",
		Args(String(FieldAssetID, "urn:uuid:abc"), Int("chunks", 2))...)

	line := buf.String()
	if !strings.Contains(line, "[ingest]") {
		t.Errorf("missing component tag: %q", line)
	}
	if !strings.Contains(line, "asset verified") {
		t.Errorf("missing message: %q", line)
	}
	if !strings.Contains(line, "asset_id=urn:uuid:abc") {
		t.Errorf("missing asset attr: %q", line)
	}
	if !strings.Contains(line, "chunks=2") {
		t.Errorf("missing chunk attr: %q", line)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info record should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn record should appear: %q", out)
	}
}

func TestJSONFormatEmitsValidObjects(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("run complete", Args(Int("assets", 3))...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "run complete" {
		t.Errorf("msg = %v", record["msg"])
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded", Args(Error(nil))...)
	WithComponent(nil, "x").Debug("also discarded")
}
