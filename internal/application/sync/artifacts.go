package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/printshop/catalog/internal/domain/catalog"
	domainsync "github.com/printshop/catalog/internal/domain/sync"
)

// artifactWriter owns the per-session output directory: the NDJSON file of
// persisted products, the summary, and the text log mirror.
type artifactWriter struct {
	dir string

	successFile *os.File
	successEnc  *json.Encoder
	logFile     *os.File
}

func newArtifactWriter(root string, session *domainsync.Session) (*artifactWriter, error) {
	dir := filepath.Join(root, fmt.Sprintf("%s-%s-%s",
		session.Supplier,
		session.StartedAt.Format("20060102-150405"),
		session.ID.String()[:8],
	))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}

	successFile, err := os.Create(filepath.Join(dir, "success.jsonl"))
	if err != nil {
		return nil, &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}

	return &artifactWriter{
		dir:         dir,
		successFile: successFile,
		successEnc:  json.NewEncoder(successFile),
	}, nil
}

// teeLogger mirrors the session's log lines into session.log next to the
// record files. A file-open failure leaves the base logger untouched.
func (w *artifactWriter) teeLogger(base *zap.Logger) *zap.Logger {
	file, err := os.OpenFile(filepath.Join(w.dir, "session.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		base.Warn("session log file open failed", zap.Error(err))
		return base
	}
	w.logFile = file

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(file), zapcore.InfoLevel)

	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

func (w *artifactWriter) writeSuccess(product *catalog.UnifiedProduct) error {
	if err := w.successEnc.Encode(product); err != nil {
		return &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}
	return nil
}

// finalize writes summary.json and, when the session collected any
// per-record failures, errors.jsonl.
func (w *artifactWriter) finalize(summary domainsync.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}
	if err := os.WriteFile(filepath.Join(w.dir, "summary.json"), data, 0o644); err != nil {
		return &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}

	if len(summary.Errors) == 0 {
		return nil
	}
	errFile, err := os.Create(filepath.Join(w.dir, "errors.jsonl"))
	if err != nil {
		return &catalog.PersistenceError{Target: "session-artifacts", Err: err}
	}
	defer errFile.Close()
	enc := json.NewEncoder(errFile)
	for _, recordErr := range summary.Errors {
		if err := enc.Encode(recordErr); err != nil {
			return &catalog.PersistenceError{Target: "session-artifacts", Err: err}
		}
	}
	return nil
}

func (w *artifactWriter) close() {
	w.successFile.Close()
	if w.logFile != nil {
		w.logFile.Close()
	}
}
