// Package logging provides categorized file-based logging for componentforge.
// Logs are written to .forge/logs/ with one file per category per day.
// Nothing is written unless debug mode is enabled; every logger is a no-op otherwise.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and config resolution
	CategorySynthesis  Category = "synthesis"  // Specification -> artifact
	CategoryVerify     Category = "verify"     // Staged artifact verification
	CategoryHarness    Category = "harness"    // Entry-point execution
	CategoryLoader     Category = "loader"     // Interpreter loads
	CategoryForge      Category = "forge"      // Create pipeline
	CategoryCatalog    Category = "catalog"    // Catalog persistence
	CategoryWatch      Category = "watch"      // Filesystem watcher
	CategoryCrewConfig Category = "crewconfig" // agents.yaml / tasks.yaml writers
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryBoot, CategorySynthesis, CategoryVerify, CategoryHarness,
		CategoryLoader, CategoryForge, CategoryCatalog, CategoryWatch, CategoryCrewConfig,
	}
}

// Settings mirrors config.LoggingConfig to avoid an import cycle.
type Settings struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
}

// Logger wraps a zap sugared logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	settings  Settings
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize sets up the logging directory under the workspace.
// Safe to call again; previously opened category files are closed first.
func Initialize(workspace string, s Settings) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	CloseAll()

	loggersMu.Lock()
	settings = s
	logsDir = ""
	loggersMu.Unlock()

	if !s.DebugMode {
		return nil
	}

	if lvl, err := zapcore.ParseLevel(strings.ToLower(s.Level)); err == nil {
		level.SetLevel(lvl)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}

	dir := filepath.Join(workspace, ".forge", "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	loggersMu.Lock()
	logsDir = dir
	loggersMu.Unlock()

	boot := Get(CategoryBoot)
	boot.Info("=== componentforge logging initialized ===")
	boot.Info("Workspace: %s", workspace)
	boot.Info("Log level: %s", level.Level())
	return nil
}

// IsDebugMode reports whether file logging is active.
func IsDebugMode() bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return settings.DebugMode && logsDir != ""
}

// IsCategoryEnabled checks a category against the settings.
// Categories absent from the map are enabled.
func IsCategoryEnabled(category Category) bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	if !settings.DebugMode {
		return false
	}
	enabled, ok := settings.Categories[string(category)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category.
// A no-op logger comes back when debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return nopLogger(category)
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	dir := logsDir
	jsonFormat := settings.JSONFormat
	loggersMu.RUnlock()

	if dir == "" {
		return nopLogger(category)
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	logPath := filepath.Join(dir, filename)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return nopLogger(category)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(file), level)
	l := &Logger{
		category: category,
		sugar:    zap.New(core).Named(string(category)).Sugar(),
		file:     file,
	}
	loggers[category] = l
	return l
}

func nopLogger(category Category) *Logger {
	return &Logger{category: category, sugar: zap.NewNop().Sugar()}
}

// Debug logs at debug level
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs at info level
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs at warn level
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs at error level
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a child logger carrying structured fields.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes and closes every category file.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		_ = l.sugar.Sync()
		if l.file != nil {
			l.file.Close()
		}
		delete(loggers, cat)
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Synthesis(format string, args ...interface{}) { Get(CategorySynthesis).Info(format, args...) }
func SynthesisDebug(format string, args ...interface{}) {
	Get(CategorySynthesis).Debug(format, args...)
}

func Verify(format string, args ...interface{})      { Get(CategoryVerify).Info(format, args...) }
func VerifyDebug(format string, args ...interface{}) { Get(CategoryVerify).Debug(format, args...) }

func Harness(format string, args ...interface{})      { Get(CategoryHarness).Info(format, args...) }
func HarnessDebug(format string, args ...interface{}) { Get(CategoryHarness).Debug(format, args...) }

func Loader(format string, args ...interface{})      { Get(CategoryLoader).Info(format, args...) }
func LoaderDebug(format string, args ...interface{}) { Get(CategoryLoader).Debug(format, args...) }

func Forge(format string, args ...interface{})      { Get(CategoryForge).Info(format, args...) }
func ForgeDebug(format string, args ...interface{}) { Get(CategoryForge).Debug(format, args...) }

func Catalog(format string, args ...interface{})      { Get(CategoryCatalog).Info(format, args...) }
func CatalogDebug(format string, args ...interface{}) { Get(CategoryCatalog).Debug(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }

func CrewConfig(format string, args ...interface{}) { Get(CategoryCrewConfig).Info(format, args...) }

// =============================================================================
// TIMING
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
