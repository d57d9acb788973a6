package utils

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	slogmulti "github.com/samber/slog-multi"
)

const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

// LogEntry is one stage record of a JSON run log.
type LogEntry struct {
	Timestamp  string `json:"time"`
	Level      string `json:"level"`
	Tool       string `json:"msg"`
	Stage      string `json:"STAGE"`
	Multiplier string `json:"MULTIPLIER"`
	Status     string `json:"STATUS"`
	Digest     string `json:"DIGEST"`
}

// NewLogger returns a logger writing JSON records to logFilePath (appending,
// so earlier runs stay readable by ParseLogFile) and text records to console.
// The returned closer closes the log file.
func NewLogger(logFilePath string, console io.Writer) (*slog.Logger, io.Closer, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", logFilePath)
	}
	handlers := []slog.Handler{slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo})}
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), logFile, nil
}

// LogStage writes a stage record in the format ParseLogFile reads back.
func LogStage(logger *slog.Logger, tool, stage, multiplier, status string, args ...any) {
	attrs := append([]any{"STAGE", stage, "MULTIPLIER", multiplier, "STATUS", status}, args...)
	if status == StatusFailed {
		logger.Error(tool, attrs...)
		return
	}
	logger.Info(tool, attrs...)
}

// ParseLogFile reads stage records from a JSON run log. A missing file yields
// no entries; lines that are not stage records are skipped.
func ParseLogFile(logFilePath string) ([]LogEntry, error) {
	var entries []LogEntry
	file, err := os.Open(logFilePath)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", logFilePath)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.Stage == "" || entry.Status == "" {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading log file %s", logFilePath)
	}
	return entries, nil
}

// StageHasCompleted reports whether stage has completed for multiplier with
// the given digest and has not been started again since. SKIPPED records
// leave the state as is.
func StageHasCompleted(entries []LogEntry, stage, multiplier, digest string) bool {
	completed := false
	for _, e := range entries {
		if e.Stage != stage || e.Multiplier != multiplier || e.Status == StatusSkipped {
			continue
		}
		completed = e.Status == StatusCompleted && e.Digest == digest
	}
	return completed
}

// Digest fingerprints the inputs and settings of a stage. A completed stage
// is only reused when its recorded digest matches.
func Digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:8])
}
