package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// setupTestDir creates a temporary directory for test logs and resets global state
func setupTestDir(t *testing.T) (consoleOut *bytes.Buffer, cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fbsbot-logging-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	// Save original state
	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID
	origConsole := console
	origLevel := consoleLevel

	// Reset global state
	consoleOut = &bytes.Buffer{}
	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	runID = ""
	runIDOnce = sync.Once{}
	console = consoleOut
	consoleLevel = zerolog.InfoLevel

	return consoleOut, func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		runID = origRunID
		runIDOnce = sync.Once{}
		console = origConsole
		consoleLevel = origLevel

		os.RemoveAll(tempDir)
	}
}

type entry struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	RunID     string `json:"run_id"`
	Message   string `json:"message"`
	Attempt   string `json:"attempt"`
}

func readEntries(t *testing.T, path string) []entry {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entries []entry
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("Log line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test-component")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got %q", logger.component)
	}
	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}
	if _, err := os.Stat(logger.LogPath()); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.LogPath())
	}
}

func TestLoggerLevels(t *testing.T) {
	consoleOut, cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("engine")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Printf("Test message %d", 123)
	logger.Debugf("Debug message")
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	entries := readEntries(t, logger.LogPath())
	want := []entry{
		{Level: "info", Message: "Test message 123"},
		{Level: "debug", Message: "Debug message"},
		{Level: "info", Message: "Info message"},
		{Level: "warn", Message: "Warning message"},
		{Level: "error", Message: "Error message"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Level != w.Level || entries[i].Message != w.Message {
			t.Errorf("Entry %d: expected %s %q, got %s %q", i, w.Level, w.Message, entries[i].Level, entries[i].Message)
		}
		if entries[i].Component != "engine" {
			t.Errorf("Entry %d: expected component engine, got %q", i, entries[i].Component)
		}
		if entries[i].RunID != logger.RunID() {
			t.Errorf("Entry %d: expected run id %q, got %q", i, logger.RunID(), entries[i].RunID)
		}
	}

	// Console is filtered at info
	out := consoleOut.String()
	if strings.Contains(out, "Debug message") {
		t.Error("Debug message should not reach the console at info level")
	}
	if !strings.Contains(out, "Warning message") {
		t.Errorf("Console missing warning, got:\n%s", out)
	}
}

func TestMultipleComponents(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	logger1, err := NewLogger("component1")
	if err != nil {
		t.Fatalf("Failed to create logger1: %v", err)
	}
	defer logger1.Close()

	logger2, err := NewLogger("component2")
	if err != nil {
		t.Fatalf("Failed to create logger2: %v", err)
	}
	defer logger2.Close()

	// They should share the same run ID and log file
	if logger1.RunID() != logger2.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", logger1.RunID(), logger2.RunID())
	}
	if logger1.LogPath() != logger2.LogPath() {
		t.Errorf("Expected same log path, got %q and %q", logger1.LogPath(), logger2.LogPath())
	}

	logger1.Infof("Message from component1")
	logger2.Infof("Message from component2")

	components := map[string]bool{}
	for _, e := range readEntries(t, logger1.LogPath()) {
		components[e.Component] = true
	}
	if !components["component1"] || !components["component2"] {
		t.Errorf("Expected entries from both components, got %v", components)
	}
}

func TestWith(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("dispatch")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.With("attempt", "a-1").Infof("tagged")

	entries := readEntries(t, logger.LogPath())
	if len(entries) != 1 || entries[0].Attempt != "a-1" {
		t.Errorf("Expected one entry tagged attempt=a-1, got %+v", entries)
	}
}

func TestConfigure(t *testing.T) {
	consoleOut, cleanup := setupTestDir(t)
	defer cleanup()

	dir := filepath.Join(logDir, "nested")
	if err := Configure(dir, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if filepath.Dir(logger.LogPath()) != dir {
		t.Errorf("Expected log in %s, got %s", dir, logger.LogPath())
	}

	logger.Debugf("visible")
	if !strings.Contains(consoleOut.String(), "visible") {
		t.Error("Expected debug output on console at debug level")
	}

	if err := Configure("", "verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestFallbackLogger(t *testing.T) {
	consoleOut, cleanup := setupTestDir(t)
	defer cleanup()

	// A file where the directory should be makes MkdirAll fail
	blocker := filepath.Join(logDir, "blocker")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}
	logDir = filepath.Join(blocker, "logs")

	logger, err := NewLogger("test")
	if err == nil {
		t.Fatal("Expected error in fallback mode")
	}
	if logger == nil {
		t.Fatal("Expected fallback logger")
	}
	if logger.LogPath() != "" {
		t.Errorf("Expected empty log path in fallback mode, got %q", logger.LogPath())
	}

	logger.Infof("still logging")
	if !strings.Contains(consoleOut.String(), "still logging") {
		t.Error("Fallback logger should write to console")
	}
}

func TestGetRunID(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	id1 := GetRunID()
	id2 := GetRunID()

	if id1 != id2 {
		t.Errorf("Expected consistent run ID, got %q and %q", id1, id2)
	}
	if id1 == "" {
		t.Error("Expected non-empty run ID")
	}
}

func TestGetLogDirectory(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	dir, err := GetLogDirectory()
	if err != nil {
		t.Fatalf("Failed to get log directory: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Log directory does not exist or is not a directory: %s", dir)
	}
}

func TestLoggerClose(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestLogPathFormat(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	// <run-id>-fbsbot.log
	fileName := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(fileName, "-fbsbot.log") {
		t.Errorf("Expected log file to end with '-fbsbot.log', got %q", fileName)
	}
	runPart := strings.TrimSuffix(fileName, "-fbsbot.log")
	if !strings.Contains(runPart, "-") {
		t.Errorf("Expected run ID part to contain dashes (UUID format), got %q", runPart)
	}
}

func TestNewAndNop(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "telegram").Debugf("hello %s", "world")
	if !strings.Contains(buf.String(), `"message":"hello world"`) {
		t.Errorf("Expected JSON entry, got %q", buf.String())
	}

	// Nop must not panic
	Nop().Errorf("dropped")
}

func TestConsoleWriterFiltersByLevel(t *testing.T) {
	consoleOut, cleanup := setupTestDir(t)
	defer cleanup()
	consoleLevel = zerolog.WarnLevel

	w, ok := consoleWriter().(zerolog.LevelWriter)
	if !ok {
		t.Fatal("Expected console writer to be a zerolog.LevelWriter")
	}
	if _, err := w.WriteLevel(zerolog.InfoLevel, []byte(`{"level":"info","message":"quiet"}`+"\n")); err != nil {
		t.Fatalf("WriteLevel failed: %v", err)
	}
	if _, err := w.WriteLevel(zerolog.ErrorLevel, []byte(`{"level":"error","message":"loud"}`+"\n")); err != nil {
		t.Fatalf("WriteLevel failed: %v", err)
	}

	out := consoleOut.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("Info entry should be filtered at warn level, got:\n%s", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("Error entry missing from console, got:\n%s", out)
	}
}

func TestComponentSharesFile(t *testing.T) {
	_, cleanup := setupTestDir(t)
	defer cleanup()

	parent, err := NewLogger("fbsbot")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	child := parent.Component("portal")
	if child.file != nil {
		t.Error("Component logger must not own a file handle")
	}
	if child.LogPath() != parent.LogPath() {
		t.Errorf("Expected shared log path %q, got %q", parent.LogPath(), child.LogPath())
	}

	parent.Infof("from parent")
	child.Infof("from child")
	child.With("attempt", "a-2").Component("dispatch").Infof("from grandchild")

	// Closing a child is a no-op; the parent's close releases the file
	if err := child.Close(); err != nil {
		t.Errorf("Child close failed: %v", err)
	}
	if err := parent.Close(); err != nil {
		t.Fatalf("Parent close failed: %v", err)
	}

	entries := readEntries(t, parent.LogPath())
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %+v", entries)
	}
	for i, want := range []string{"fbsbot", "portal", "dispatch"} {
		if entries[i].Component != want {
			t.Errorf("Entry %d: expected component %q, got %q", i, want, entries[i].Component)
		}
		if entries[i].RunID != parent.RunID() {
			t.Errorf("Entry %d: run id mismatch", i)
		}
	}

	if Nop().Component("x") == nil {
		t.Error("Component of Nop must not be nil")
	}
}
