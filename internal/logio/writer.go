package logio

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that buffers partial lines and passes each complete
// line to Logf; safe for concurrent use.
type Writer struct {
	Logf func(string, ...interface{})

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write buffers p and logs every line it completes.
func (lw *Writer) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	for {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		lw.Logf("%s", lw.buf.Next(i))
		lw.buf.Next(1)
	}
	return len(p), nil
}

// Close logs any trailing partial line.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.buf.Len() > 0 {
		lw.Logf("%s", lw.buf.Next(lw.buf.Len()))
	}
	return nil
}
