package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// writeOutput renders into stdout for "" or "-". Files are replaced
// atomically, so a failed render never leaves a half-written export behind.
func writeOutput(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" || path == "-" {
		return render(stdout)
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return withCode(exitUsage, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}
