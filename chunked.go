package main

import (
	"errors"
	"fmt"
	"io"
)

var errWriteAfterClose = errors.New("chunked: write after close")

// ChunkedWriter frames everything written to it as chunked transfer coding.
// Close emits the terminating zero-length chunk; nothing may follow it.
type ChunkedWriter struct {
	w      io.Writer
	closed bool
}

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

func (w *ChunkedWriter) Write(b []byte) (int, error) {
	if w.closed {
		return 0, errWriteAfterClose
	}
	// A zero-length chunk would terminate the body early.
	if len(b) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(w.w, "%x\r\n", len(b)); err != nil {
		return 0, err
	}
	n, err := w.w.Write(b)
	if err != nil {
		return n, err
	}
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return n, err
	}
	return n, nil
}

func (w *ChunkedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := io.WriteString(w.w, "0\r\n\r\n")
	return err
}
