package main

import (
	"fmt"
	"io"
	"os"
)

// withOutput calls fn with the named file, or with fallback when path is empty.
func withOutput(path string, fallback io.Writer, fn func(io.Writer) error) (err error) {
	if path == "" {
		return fn(fallback)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	return fn(f)
}
