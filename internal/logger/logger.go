package logger

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a console logger at the given level. It is built once in main
// and handed to every component that logs.
func New(level string) *Logger {
	return newZapLogger(level, FormatConsole)
}

// NewWithFormat is New with a selectable encoder; unknown formats fall
// back to console.
func NewWithFormat(level, format string) *Logger {
	return newZapLogger(level, format)
}
