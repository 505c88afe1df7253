// Package flushio provides flushable writers and a line-oriented sink built
// on them.
package flushio

import (
	"bufio"
	"io"
)

// WriteFlusher is a flush-able io.Writer.
type WriteFlusher interface {
	io.Writer
	Flush() error
}

// NewWriteFlusher returns w itself when it can already flush, a no-op
// flushing wrapper for discard and in-memory buffers, and a bufio.Writer
// otherwise.
func NewWriteFlusher(w io.Writer) WriteFlusher {
	switch impl := w.(type) {
	case WriteFlusher:
		return impl
	case interface {
		io.Writer
		Len() int
		Reset()
	}:
		return nopFlusher{w}
	}
	if w == io.Discard {
		return nopFlusher{w}
	}
	return bufio.NewWriter(w)
}

type nopFlusher struct{ io.Writer }

func (nopFlusher) Flush() error { return nil }

// Tee returns a WriteFlusher that writes to and flushes every non-nil given
// WriteFlusher, in order.
func Tee(wfs ...WriteFlusher) WriteFlusher {
	var all tee
	for _, wf := range wfs {
		if many, ok := wf.(tee); ok {
			all = append(all, many...)
		} else if wf != nil {
			all = append(all, wf)
		}
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return all
}

type tee []WriteFlusher

func (t tee) Write(p []byte) (int, error) {
	for _, wf := range t {
		n, err := wf.Write(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
	}
	return len(p), nil
}

func (t tee) Flush() (err error) {
	for _, wf := range t {
		if ferr := wf.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

// LineWriter adapts a WriteFlusher into a per-line sink: each line is written
// with a trailing newline and flushed, so that interactive output appears as
// soon as it is complete. The first write error is retained.
type LineWriter struct {
	WF  WriteFlusher
	Err error
}

// WriteLine writes and flushes one line.
func (lw *LineWriter) WriteLine(line string) {
	if lw.Err != nil {
		return
	}
	if _, err := io.WriteString(lw.WF, line+"\n"); err != nil {
		lw.Err = err
		return
	}
	lw.Err = lw.WF.Flush()
}
