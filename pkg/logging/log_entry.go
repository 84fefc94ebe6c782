package logging

// LogEntry represents a structured log record with fields relevant to
// the conjecture-prove loop.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Loop-specific fields
	Iteration int    // Iteration the record belongs to, -1 outside a round
	Statement string // Conjecture being processed, if any

	// General structured data
	Fields map[string]interface{}
}
