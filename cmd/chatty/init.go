package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nugget/chatty/internal/defaults"
)

// runInit writes the example configuration into dir. An existing
// config.yaml is left alone.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, "config.yaml")
	written, err := writeIfMissing(path, defaults.ConfigYAML, 0o600)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(w, "%s already exists, leaving it unchanged\n", path)
		return nil
	}

	fmt.Fprintf(w, "Wrote %s\n", path)
	fmt.Fprintln(w, "Edit it to pick a model, search provider and workspace, then run chatty.")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist, and reports whether it wrote.
func writeIfMissing(path string, content []byte, perm os.FileMode) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, f.Close()
}
