package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var logger = newSimpleLogger()

const (
	logLevelDebug logLevel = iota
	logLevelInfo
	logLevelWarn
	logLevelError
)

var levelNames = []string{
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
}

type logLevel int

type logEvent struct {
	level logLevel
	msg   string
	attrs []any
}

type simpleLogger struct {
	level    atomic.Int32
	queue    chan logEvent
	done     chan struct{}
	writerMu sync.RWMutex
	out      io.Writer
	stdout   bool
	wg       sync.WaitGroup
	stopOnce sync.Once
	closing  atomic.Bool
}

func newSimpleLogger() *simpleLogger {
	l := &simpleLogger{
		queue:  make(chan logEvent, 1024),
		done:   make(chan struct{}),
		out:    os.Stdout,
		stdout: false,
	}
	l.level.Store(int32(logLevelInfo))
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *simpleLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case evt := <-l.queue:
			l.writeEntry(evt)
		case <-l.done:
			for {
				select {
				case evt := <-l.queue:
					l.writeEntry(evt)
				default:
					return
				}
			}
		}
	}
}

func (l *simpleLogger) log(level logLevel, msg string, attrs ...any) {
	if level < logLevel(l.level.Load()) {
		return
	}
	if l.closing.Load() {
		return
	}
	select {
	case l.queue <- logEvent{level: level, msg: msg, attrs: append([]any(nil), attrs...)}:
	case <-l.done:
	}
}

func (l *simpleLogger) Debug(msg string, attrs ...any) {
	l.log(logLevelDebug, msg, attrs...)
}

func (l *simpleLogger) Info(msg string, attrs ...any) {
	l.log(logLevelInfo, msg, attrs...)
}

func (l *simpleLogger) Warn(msg string, attrs ...any) {
	l.log(logLevelWarn, msg, attrs...)
}

func (l *simpleLogger) Error(msg string, attrs ...any) {
	l.log(logLevelError, msg, attrs...)
}

func (l *simpleLogger) setLevel(level logLevel) {
	l.level.Store(int32(level))
}

func (l *simpleLogger) configureWriter(out io.Writer, stdout bool) {
	if out == nil {
		out = io.Discard
	}
	l.writerMu.Lock()
	l.out = out
	l.stdout = stdout
	l.writerMu.Unlock()
}

func (l *simpleLogger) Stop() {
	l.stopOnce.Do(func() {
		l.closing.Store(true)
		close(l.done)
		l.wg.Wait()
		l.writerMu.Lock()
		closeWriter(l.out)
		l.out = io.Discard
		l.writerMu.Unlock()
	})
}

func closeWriter(w io.Writer) {
	if closer, ok := w.(io.Closer); ok {
		_ = closer.Close()
	}
}

func (l *simpleLogger) writeEntry(evt logEvent) {
	attrText := formatAttrs(evt.attrs)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	levelName := "UNKNOWN"
	if int(evt.level) >= 0 && int(evt.level) < len(levelNames) {
		levelName = levelNames[evt.level]
	}
	var entry strings.Builder
	entry.WriteString(timestamp)
	entry.WriteString(" [")
	entry.WriteString(levelName)
	entry.WriteString("] ")
	entry.WriteString(evt.msg)
	if attrText != "" {
		entry.WriteString(" ")
		entry.WriteString(attrText)
	}
	entry.WriteByte('\n')
	line := entry.String()

	l.writerMu.RLock()
	out := l.out
	stdout := l.stdout
	l.writerMu.RUnlock()

	if stdout && out != os.Stdout {
		_, _ = os.Stdout.Write([]byte(line))
	}
	if out != nil {
		_, _ = out.Write([]byte(line))
	}
}

func formatAttrs(attrs []any) string {
	if len(attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(attrs); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		key := fmt.Sprint(attrs[i])
		if i+1 < len(attrs) {
			value := fmt.Sprint(attrs[i+1])
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(value)
			i++
		} else {
			b.WriteString(key)
		}
	}
	return b.String()
}

// reopeningFileWriter appends to a log file, recreating it if an external
// rotation removed it between writes.
type reopeningFileWriter struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func newReopeningFileWriter(path string) io.Writer {
	if path == "" {
		return io.Discard
	}
	return &reopeningFileWriter{path: path}
}

func (w *reopeningFileWriter) ensureFile() error {
	if w.path == "" {
		return nil
	}
	if _, err := os.Stat(w.path); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if w.f != nil {
			_ = w.f.Close()
			w.f = nil
		}
	}
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.f = f
	}
	return nil
}

func (w *reopeningFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureFile(); err != nil {
		return 0, err
	}
	if w.f == nil {
		return 0, nil
	}
	return w.f.Write(p)
}

func (w *reopeningFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func setLogLevel(level logLevel) {
	logger.setLevel(level)
}

func configureFileLogging(path string, stdout bool) {
	logger.configureWriter(newReopeningFileWriter(path), stdout)
}

func fatal(msg string, err error, attrs ...any) {
	attrPairs := append(attrs, "error", err)
	logger.Error(msg, attrPairs...)
	logger.Stop()
	os.Exit(1)
}
