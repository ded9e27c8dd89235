// Package logger provides structured logging for the Pattern dataset
// engine.
//
// Levels are TRACE through ERROR, gated by an atomically-stored threshold
// so a disabled call costs one load and a comparison. TRACE output is
// additionally gated per subsystem (see EnableTrace) so a caller can light
// up just the reader pool, the cache layer, the assembler's section walk,
// or the packed-integer side tables without drowning in the others.
//
// Line format:
//   YYYY/MM/DD HH:MM:SS.ssssss [PID:GID] [LEVEL] func.file:line: message
package logger

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is a logging severity. Higher values are more severe; setting a
// threshold suppresses everything below it.
type LogLevel int32

// Level guidelines for this engine specifically:
//
// TRACE: subsystem-gated blow-by-blow detail, enabled with EnableTrace.
//   - "pool"      periodic reader pool occupancy report (dataset/reader_pool.go)
//   - "cache"     per-key hit/miss/evict decisions (cache/lru.go, cache/arc.go)
//   - "assembler" section-discovery sequencing (dataset/assembler.go)
//   - "sidetable" packed integer side-table lookups (dataset/sidetable.go)
//
// DEBUG: always-on diagnostic detail a caller doesn't need to opt into,
// chiefly cache hit/miss outcomes and loader invocations.
//
// INFO: dataset open/close lifecycle, reader pool creation/shutdown.
//
// WARN: the reader pool dropping an excess reader on return.
//
// ERROR: container I/O failures, section validation failures.
const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < TRACE || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

var (
	threshold atomic.Int32

	traceMu         sync.RWMutex
	traceSubsystems = make(map[string]bool)

	pid = os.Getpid()
	out = log.New(os.Stdout, "", 0)
)

func init() {
	threshold.Store(int32(INFO))
}

// SetLogLevel sets the minimum level that will be emitted.
func SetLogLevel(level string) error {
	lvl, ok := parseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level: %s", level)
	}
	threshold.Store(int32(lvl))
	Info("log level changed to %s", lvl)
	return nil
}

func parseLevel(s string) (LogLevel, bool) {
	for lvl, name := range levelNames {
		if strings.EqualFold(name, s) {
			return LogLevel(lvl), true
		}
	}
	return 0, false
}

// GetLogLevel returns the current minimum level as a string.
func GetLogLevel() string {
	return LogLevel(threshold.Load()).String()
}

func enabled(level LogLevel) bool {
	return level >= LogLevel(threshold.Load())
}

// EnableTrace turns on TRACE output for the named subsystems.
func EnableTrace(subsystems ...string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	for _, s := range subsystems {
		traceSubsystems[s] = true
	}
}

// DisableTrace turns off TRACE output for the named subsystems.
func DisableTrace(subsystems ...string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	for _, s := range subsystems {
		delete(traceSubsystems, s)
	}
}

// ClearTrace disables every subsystem's TRACE output.
func ClearTrace() {
	traceMu.Lock()
	defer traceMu.Unlock()
	traceSubsystems = make(map[string]bool)
}

// GetTraceSubsystems returns the currently enabled subsystem names.
func GetTraceSubsystems() []string {
	traceMu.RLock()
	defer traceMu.RUnlock()
	names := make([]string, 0, len(traceSubsystems))
	for s := range traceSubsystems {
		names = append(names, s)
	}
	return names
}

func subsystemEnabled(subsystem string) bool {
	traceMu.RLock()
	defer traceMu.RUnlock()
	return traceSubsystems[subsystem]
}

// composeLine renders one log line: timestamp, pid:goroutine, level, the
// caller skip frames above, and the formatted message.
func composeLine(level LogLevel, skip int, format string, args ...interface{}) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		file, line = "unknown", 0
	}
	file = baseName(file)

	fn := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = baseName(f.Name())
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006/01/02 15:04:05.000000"))
	fmt.Fprintf(&b, " [%d:%d] [%s] %s.%s:%d: ", pid, goroutineID(), level, fn, file, line)
	fmt.Fprintf(&b, format, args...)
	return b.String()
}

// baseName trims a path or dotted symbol down to its last component and,
// for files, drops the ".go" suffix.
func baseName(s string) string {
	if idx := strings.LastIndexByte(s, '/'); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndexByte(s, '.'); idx != -1 && strings.HasSuffix(s, ".go") {
		return s[:idx]
	}
	if idx := strings.LastIndexByte(s, '.'); idx != -1 {
		s = s[idx+1:]
	}
	return s
}

// goroutineID recovers the calling goroutine's ID from its own stack trace
// header ("goroutine N [running]:..."), the only way the runtime exposes
// it without cgo. Used purely to make concurrent log output from the
// reader pool and cache layer attributable to a goroutine when TRACE is
// enabled for those subsystems.
func goroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return 0
	}
	id := 0
	fmt.Sscanf(fields[1], "%d", &id)
	return id
}

func emit(level LogLevel, skip int, format string, args ...interface{}) {
	if !enabled(level) {
		return
	}
	out.Println(composeLine(level, skip, format, args...))
}

// TraceIf logs a TRACE message only when both the TRACE level and
// subsystem are enabled, per EnableTrace.
func TraceIf(subsystem string, format string, args ...interface{}) {
	if !enabled(TRACE) || !subsystemEnabled(subsystem) {
		return
	}
	emit(TRACE, 3, "[%s] %s", subsystem, fmt.Sprintf(format, args...))
}

// Trace logs an unconditional TRACE message (no subsystem gate).
func Trace(format string, args ...interface{}) { emit(TRACE, 3, format, args...) }

// Debug logs a DEBUG message.
func Debug(format string, args ...interface{}) { emit(DEBUG, 3, format, args...) }

// Info logs an INFO message.
func Info(format string, args ...interface{}) { emit(INFO, 3, format, args...) }

// Warn logs a WARN message.
func Warn(format string, args ...interface{}) { emit(WARN, 3, format, args...) }

// Error logs an ERROR message.
func Error(format string, args ...interface{}) { emit(ERROR, 3, format, args...) }

// Fatal logs an ERROR message and exits the process.
func Fatal(format string, args ...interface{}) {
	out.Println(composeLine(ERROR, 2, format, args...))
	os.Exit(1)
}

// Panic logs an ERROR message and panics with it.
func Panic(format string, args ...interface{}) {
	out.Println(composeLine(ERROR, 2, format, args...))
	panic(fmt.Sprintf(format, args...))
}

// Configure applies PATTERNDATASET_LOG_LEVEL and
// PATTERNDATASET_TRACE_SUBSYSTEMS from the environment, if set.
func Configure() {
	if level := os.Getenv("PATTERNDATASET_LOG_LEVEL"); level != "" {
		SetLogLevel(level)
	}
	if trace := os.Getenv("PATTERNDATASET_TRACE_SUBSYSTEMS"); trace != "" {
		subsystems := strings.Split(trace, ",")
		for i, s := range subsystems {
			subsystems[i] = strings.TrimSpace(s)
		}
		EnableTrace(subsystems...)
	}
}
