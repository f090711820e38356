package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestNewReleaseHonoursExplicitLevelAndService(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{
		Dir:      tmpDir,
		Filename: "level.log",
		Level:    "warn",
		Service:  "lumen-api",
	})
	log.Info("info-should-be-dropped")
	log.Warn("warn-should-be-kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "info-should-be-dropped") {
		t.Fatalf("info line should be filtered by warn level, got=%s", text)
	}
	if !strings.Contains(text, "warn-should-be-kept") || !strings.Contains(text, `"service":"lumen-api"`) {
		t.Fatalf("expected warn line with service field, got=%s", text)
	}
}

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		mode, raw string
		want      zapcore.Level
	}{
		{"debug", "", zapcore.DebugLevel},
		{"release", "", zapcore.InfoLevel},
		{"release", "error", zapcore.ErrorLevel},
		{"debug", "not-a-level", zapcore.DebugLevel},
	}
	for _, tc := range cases {
		if got := resolveLevel(tc.mode, tc.raw); got != tc.want {
			t.Fatalf("resolveLevel(%q, %q) = %v, want %v", tc.mode, tc.raw, got, tc.want)
		}
	}
}

func TestInitReplacesGlobalLogger(t *testing.T) {
	t.Cleanup(func() { L = nil })
	log := Init("debug", Options{})
	if Z() != log || zap.L() != log {
		t.Fatalf("expected Init to install the global logger")
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug mode should enable debug level")
	}
}
