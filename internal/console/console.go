// Package console provides the package-level logger used by the CLI and the
// generators.
package console

import (
	"fmt"
	"io"
	"os"
)

// Logger is the shared console logger.
var Logger = &ConsoleLogger{Out: os.Stderr}

// ConsoleLogger writes leveled messages to an output stream. Debug messages
// are suppressed unless DebugLevel is raised.
type ConsoleLogger struct {
	Out        io.Writer
	DebugLevel int
	Quiet      bool
}

// Debug logs a message when debug output is enabled.
func (l *ConsoleLogger) Debug(format string, v ...interface{}) {
	if l.DebugLevel < 1 || l.Quiet {
		return
	}
	fmt.Fprintf(l.Out, "DEBUG: "+format+"\n", v...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(format string, v ...interface{}) {
	if l.Quiet {
		return
	}
	fmt.Fprintf(l.Out, format+"\n", v...)
}

// Warn logs a warning.
func (l *ConsoleLogger) Warn(format string, v ...interface{}) {
	if l.Quiet {
		return
	}
	fmt.Fprintf(l.Out, "WARN: "+format+"\n", v...)
}

// Error logs an error.
func (l *ConsoleLogger) Error(format string, v ...interface{}) {
	fmt.Fprintf(l.Out, "ERROR: "+format+"\n", v...)
}

// Printf implements the Debugger interface used by the services.
func (l *ConsoleLogger) Printf(format string, v ...interface{}) {
	l.Debug(format, v...)
}
