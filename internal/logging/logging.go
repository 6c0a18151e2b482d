package logging

import (
	"io"
	"log"
	"os"
)

// DefaultFile is where debug output goes when logging is enabled
const DefaultFile = "filegap-debug.log"

var (
	Debug   *log.Logger
	Scanner *log.Logger
	Enabled bool
)

func init() {
	// Only enable logging if FILEGAP_DEBUG environment variable is set
	if os.Getenv("FILEGAP_DEBUG") == "" {
		Disable()
		return
	}
	Enable(DefaultFile)
}

// Disable replaces the loggers with no-op loggers that discard output
func Disable() {
	Debug = log.New(io.Discard, "", 0)
	Scanner = log.New(io.Discard, "", 0)
	Enabled = false
}

// Enable sends debug output to the file at path, appending to it
func Enable(path string) {
	Enabled = true

	// Open the log once for all loggers
	debugFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// Fallback to stderr if we can't open the file
		Debug = log.New(os.Stderr, "[DEBUG] ", log.Ldate|log.Ltime)
		Scanner = log.New(os.Stderr, "[SCANNER] ", log.Ldate|log.Ltime)
		return
	}

	// Create loggers with different prefixes sharing the same file
	Debug = log.New(debugFile, "[DEBUG] ", log.Lmicroseconds)
	Scanner = log.New(debugFile, "[SCANNER] ", log.Lmicroseconds)
}

// EnableWriter sends debug output to w
func EnableWriter(w io.Writer) {
	Enabled = true
	Debug = log.New(w, "[DEBUG] ", log.Lmicroseconds)
	Scanner = log.New(w, "[SCANNER] ", log.Lmicroseconds)
}
