package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tempDir := t.TempDir()
	oldWorkDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWorkDir)
	})

	logFilePath, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolveLogFilePath failed: %v", err)
	}

	wantDir := filepath.Join(tempDir, defaultLogDirName)
	if filepath.Dir(logFilePath) != wantDir {
		t.Fatalf("log dir = %s, want %s", filepath.Dir(logFilePath), wantDir)
	}
	if filepath.Base(logFilePath) != defaultLogFilename {
		t.Fatalf("log filename = %s, want %s", filepath.Base(logFilePath), defaultLogFilename)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tempDir := t.TempDir()
	log := New("release", Options{
		Dir:      tempDir,
		Filename: "catalog.log",
	})
	log.Info("release log probe")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tempDir, "catalog.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("log file is empty")
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tempDir := t.TempDir()
	log := New("debug", Options{
		Dir:      tempDir,
		Filename: "catalog.log",
	})
	log.Debug("debug log probe")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tempDir, "catalog.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file, stat err = %v", err)
	}
}

func TestNormalizePositiveInt(t *testing.T) {
	if got := normalizePositiveInt(0, 7); got != 7 {
		t.Fatalf("normalizePositiveInt(0, 7) = %d, want 7", got)
	}
	if got := normalizePositiveInt(-3, 7); got != 7 {
		t.Fatalf("normalizePositiveInt(-3, 7) = %d, want 7", got)
	}
	if got := normalizePositiveInt(42, 7); got != 42 {
		t.Fatalf("normalizePositiveInt(42, 7) = %d, want 42", got)
	}
}
