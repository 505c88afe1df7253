package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/jcorbin/bigforth/internal/fileinput"
)

var errInterrupted = errors.New("interrupted")

// lineReader yields input lines; ReadLine returns io.EOF at the end and
// errInterrupted when the user abandons a line.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

// newLineReader edits lines with readline when in is a terminal, and scans
// plain lines otherwise.
func newLineReader(in *os.File, cfg REPLConfig) (lineReader, error) {
	if !term.IsTerminal(int(in.Fd())) {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 4096), fileinput.MaxLine)
		return scanLines{sc}, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.History,
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
		Stdin:           in,
	})
	if err != nil {
		return nil, err
	}
	return editLines{rl}, nil
}

type editLines struct{ *readline.Instance }

func (el editLines) ReadLine() (string, error) {
	line, err := el.Readline()
	if err == readline.ErrInterrupt {
		return "", errInterrupted
	}
	return line, err
}

type scanLines struct{ *bufio.Scanner }

func (sl scanLines) ReadLine() (string, error) {
	if sl.Scan() {
		return sl.Text(), nil
	}
	if err := sl.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (scanLines) Close() error { return nil }
