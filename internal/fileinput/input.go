// Package fileinput reads named line-oriented sources, tracking the location
// of each line for error reporting.
package fileinput

import (
	"bufio"
	"fmt"
	"io"
)

// MaxLine bounds the length of a single source line.
const MaxLine = 64 * 1024

// Location names a line in an input source.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }

// Input reads lines from a queue of readers, in order.
type Input struct {
	Queue []io.Reader

	sc   *bufio.Scanner
	cur  io.Reader
	Last Location
	text string
}

// Scan advances to the next line, moving through the queue as readers are
// exhausted; readers that implement io.Closer are closed once drained.
// Returns false at the end of the queue or on error; see Err.
func (in *Input) Scan() bool {
	for {
		if in.sc == nil && !in.nextIn() {
			return false
		}
		if in.sc.Scan() {
			in.Last.Line++
			in.text = in.sc.Text()
			return true
		}
		if err := in.sc.Err(); err != nil {
			in.text = ""
			return false
		}
		in.closeCur()
	}
}

// Text returns the most recently scanned line, without its newline.
func (in *Input) Text() string { return in.text }

// Err returns the first non-EOF read error.
func (in *Input) Err() error {
	if in.sc == nil {
		return nil
	}
	if err := in.sc.Err(); err != nil {
		return fmt.Errorf("%v: %w", in.Last, err)
	}
	return nil
}

// Close closes the current and any queued readers.
func (in *Input) Close() error {
	err := in.closeCur()
	for _, r := range in.Queue {
		if cl, ok := r.(io.Closer); ok {
			if cerr := cl.Close(); err == nil {
				err = cerr
			}
		}
	}
	in.Queue = nil
	return err
}

func (in *Input) closeCur() (err error) {
	if cl, ok := in.cur.(io.Closer); ok {
		err = cl.Close()
	}
	in.cur, in.sc = nil, nil
	return err
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	in.cur = in.Queue[0]
	in.Queue = in.Queue[1:]
	in.sc = bufio.NewScanner(in.cur)
	in.sc.Buffer(make([]byte, 0, 4096), MaxLine)
	in.Last = Location{Name: NameOf(in.cur)}
	return true
}

// NameOf returns the Name() of a reader that has one, like *os.File.
func NameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}

// Named gives a reader a name for NameOf.
func Named(name string, r io.Reader) io.Reader { return namedReader{r, name} }

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func (nr namedReader) Close() error {
	if cl, ok := nr.Reader.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
