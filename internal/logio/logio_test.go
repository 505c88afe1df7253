package logio_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jcorbin/bigforth/internal/logio"
	"github.com/stretchr/testify/assert"
)

func Test_Logger(t *testing.T) {
	var (
		out strings.Builder
		log logio.Logger
	)
	log.Printf("INFO", "dropped before output is set")
	log.SetOutput(&out)
	log.Leveledf("TRACE")("step %v", 1)
	log.Printf("", "plain\n")
	assert.Equal(t, 0, log.ExitCode())
	log.ErrorIf(nil)
	assert.Equal(t, 0, log.ExitCode())
	log.ErrorIf(errors.New("boom"))
	assert.Equal(t, 1, log.ExitCode())
	assert.Equal(t, "TRACE: step 1\nplain\nERROR: boom\n", out.String())
}

func Test_Writer(t *testing.T) {
	var lines []string
	lw := &logio.Writer{Logf: func(mess string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(mess, args...))
	}}
	fmt.Fprint(lw, "one\ntw")
	fmt.Fprint(lw, "o\nthree")
	assert.Equal(t, []string{"one", "two"}, lines)
	assert.NoError(t, lw.Close())
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}
