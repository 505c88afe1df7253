package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jcorbin/bigforth/internal/fileinput"
	"github.com/jcorbin/bigforth/internal/flushio"
	"github.com/jcorbin/bigforth/internal/logio"
)

const soloIdentity = "main"

func main() {
	var (
		cfgPath   string
		timeout   time.Duration
		trace     bool
		multi     bool
		dump      bool
		imagePath string
		teePath   string
		loadDir   string
		steps     int
		redefine  bool
	)
	flag.StringVar(&cfgPath, "config", "", "read settings from a TOML file")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit for each command")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&multi, "multi", false, "prefix each input line with an identity, one environment per identity")
	flag.BoolVar(&dump, "dump", false, "dump environment state to stderr before exiting")
	flag.StringVar(&imagePath, "image", "", "restore environments from, and save them back to, an image file")
	flag.StringVar(&teePath, "tee", "", "copy output to a file")
	flag.StringVar(&loadDir, "load-dir", "", "directory that LOAD reads from")
	flag.IntVar(&steps, "steps", 0, "limit the instructions run by each command")
	flag.BoolVar(&redefine, "redefine", false, "allow : to shadow existing words")
	flag.Parse()

	var log logio.Logger
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	cfg := DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = ReadConfig(cfgPath); err != nil {
			log.Errorf("%v", err)
			return
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "steps":
			cfg.Limits.Steps = steps
		case "redefine":
			cfg.Redefine = redefine
		case "load-dir":
			cfg.Load.Dir = loadDir
		}
	})

	out := flushio.NewWriteFlusher(os.Stdout)
	if teePath != "" {
		f, err := os.Create(teePath)
		if err != nil {
			log.Errorf("%v", err)
			return
		}
		defer func() { log.ErrorIf(f.Close()) }()
		out = flushio.Tee(out, flushio.NewWriteFlusher(f))
	}
	lw := &flushio.LineWriter{WF: out}
	emit := func(identity, line string) {
		if multi {
			line = identity + ": " + line
		}
		lw.WriteLine(line)
	}

	opts := cfg.Options()
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}
	sess := session{
		reg:     NewRegistry(emit, opts...),
		multi:   multi,
		timeout: timeout,
	}

	if imagePath != "" {
		if err := sess.restore(imagePath); err != nil {
			log.Errorf("%v", err)
			return
		}
		defer func() { log.ErrorIf(sess.save(imagePath)) }()
	}
	if dump {
		defer sess.dump(os.Stderr)
	}

	if args := flag.Args(); len(args) > 0 {
		if err := sess.runScripts(args); err != nil {
			log.Errorf("%v", err)
		}
	}

	lines, err := newLineReader(os.Stdin, cfg.REPL)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	defer lines.Close()
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, errInterrupted) {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			log.Errorf("%v", err)
			break
		}
		sess.interpret(line)
	}
	log.ErrorIf(lw.Err)
}

// session dispatches input lines to the registry.
type session struct {
	reg     *Registry
	multi   bool
	timeout time.Duration
}

func (sess session) interpret(line string) error {
	identity, src := soloIdentity, line
	if sess.multi {
		var ok bool
		identity, src, ok = strings.Cut(strings.TrimSpace(line), " ")
		if !ok && identity == "" {
			return nil
		}
	}
	ctx := context.Background()
	if sess.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sess.timeout)
		defer cancel()
	}
	return sess.reg.Interpret(ctx, identity, src)
}

// runScripts interprets each line of the named files in turn; errors have
// already been shown, so only the first is returned, with its location.
func (sess session) runScripts(names []string) error {
	var in fileinput.Input
	defer in.Close()
	for _, name := range names {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		in.Queue = append(in.Queue, f)
	}
	var first error
	for in.Scan() {
		if err := sess.interpret(in.Text()); err != nil && first == nil {
			first = fmt.Errorf("%v: %w", in.Last, err)
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	return first
}

func (sess session) restore(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()
	if err := sess.reg.Load(f); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return nil
}

// save writes the image next to path, then renames it into place.
func (sess session) save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := sess.reg.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (sess session) dump(w io.Writer) {
	for _, id := range sess.reg.Identities() {
		sess.reg.Do(id, func(vm *VM) {
			vmDumper{vm: vm, out: w}.dump()
		})
	}
}
