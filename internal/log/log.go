// Package log provides context-aware logging for iwt.
package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"go.uber.org/zap"
)

type ctxKey struct{}

var (
	infoPrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("[INFO]")
	okPrefix   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("[OK]")
	warnPrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Render("[WARN]")
	dryPrefix  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true).Render("[DRY-RUN]")
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Logger writes diagnostics (progress, warnings, traced commands) to stderr.
// Primary data goes through the output package instead.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
	trace   *zap.Logger
}

// New creates a new logger. Quiet suppresses everything, including
// verbose output.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{out: out, verbose: verbose, quiet: quiet}
}

// WithTrace returns a copy of the logger that mirrors commands, warnings
// and debug events to z.
func (l *Logger) WithTrace(z *zap.Logger) *Logger {
	c := *l
	c.trace = z
	return &c
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{out: io.Discard}
}

// Printf writes formatted output.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a line of output.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Info writes an "[INFO]" line.
func (l *Logger) Info(format string, args ...any) {
	l.Printf("%s %s\n", infoPrefix, fmt.Sprintf(format, args...))
}

// OK writes an "[OK]" line.
func (l *Logger) OK(format string, args ...any) {
	l.Printf("%s %s\n", okPrefix, fmt.Sprintf(format, args...))
}

// DryRun writes a "[DRY-RUN]" line.
func (l *Logger) DryRun(format string, args ...any) {
	l.Printf("%s %s\n", dryPrefix, fmt.Sprintf(format, args...))
}

// Warn writes a "[WARN]" line. Warnings are soft conditions: the caller
// keeps going after reporting one.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.trace != nil {
		l.trace.Warn(msg)
	}
	l.Printf("%s %s\n", warnPrefix, msg)
}

// Debug writes a message followed by key=value pairs in verbose mode.
// An odd trailing key is dropped.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l.trace != nil {
		fields := make([]zap.Field, 0, len(keyvals)/2)
		for i := 0; i+1 < len(keyvals); i += 2 {
			fields = append(fields, zap.Any(fmt.Sprint(keyvals[i]), keyvals[i+1]))
		}
		l.trace.Debug(msg, fields...)
	}
	if !l.IsVerbose() {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	fmt.Fprintln(l.out, mutedStyle.Render(b.String()))
}

// Command logs an external command execution. The returned func must be
// called with the elapsed time once the command finished; it prints the
// command line in verbose mode.
func (l *Logger) Command(dir, name string, args ...string) func(time.Duration) {
	return func(d time.Duration) {
		if l.trace != nil {
			l.trace.Debug("exec",
				zap.String("dir", dir),
				zap.String("cmd", name),
				zap.Strings("args", args),
				zap.Duration("duration", d))
		}
		if !l.IsVerbose() {
			return
		}
		line := "$ " + name
		if len(args) > 0 {
			line += " " + strings.Join(args, " ")
		}
		if dir != "" {
			line = "[" + dir + "] " + line
		}
		fmt.Fprintln(l.out, mutedStyle.Render(fmt.Sprintf("%s (%s)", line, d.Round(time.Millisecond))))
	}
}

// IsVerbose returns true if verbose mode is enabled and not overridden by quiet.
func (l *Logger) IsVerbose() bool {
	return l.verbose && !l.quiet
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}
