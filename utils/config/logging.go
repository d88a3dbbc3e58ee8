package config

import (
	"fmt"
	"os"
	"strings"
)

// Verbose enables high level progress output
var Verbose bool

// Debug enables detailed internal output
var Debug bool

// VerboseLog prints an informational line if verbose or debug mode is enabled
func VerboseLog(format string, args ...interface{}) {
	if Verbose || Debug {
		fmt.Printf("[INFO] "+format+"\n", args...)
	}
}

// DebugLog prints debug information if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	if Debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// InActions reports whether the process runs inside a GitHub Actions job
func InActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// ActionWarning emits a warning annotation inside Actions and a plain line elsewhere
func ActionWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if InActions() {
		fmt.Printf("::warning::%s\n", escapeWorkflowData(msg))
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// ActionError emits an error annotation inside Actions and a plain line elsewhere
func ActionError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if InActions() {
		fmt.Printf("::error::%s\n", escapeWorkflowData(msg))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
}

// SetOutput records a step output in $GITHUB_OUTPUT. Outside Actions it is a no-op.
func SetOutput(name, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		DebugLog("GITHUB_OUTPUT not set, skipping output %s", name)
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()

	if strings.Contains(value, "\n") {
		const delimiter = "EIDOS_OUTPUT_EOF"
		_, err = fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	} else {
		_, err = fmt.Fprintf(f, "%s=%s\n", name, value)
	}
	if err != nil {
		return fmt.Errorf("error writing GITHUB_OUTPUT: %w", err)
	}
	return nil
}

func escapeWorkflowData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
