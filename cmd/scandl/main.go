// Command scandl converts markdown documents with definition lists to html.
//
// Inputs are files or doublestar patterns like "docs/**/*.md"; with none, or
// "-", stdin is read. Settings come from flags, SCANDL_* environment
// variables, and the nearest .scandl.yaml file, in that order of precedence.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/google/renameio"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/jcorbin/scandl/internal/socutil"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("scandl: ")
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Cause(err) == pflag.ErrHelp {
			return
		}
		log.Fatalln(err)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (rerr error) {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	names, err := expandInputs(cfg.Inputs)
	if err != nil {
		return err
	}

	out := stdout
	if cfg.Output != "" {
		pending, err := renameio.TempFile("", cfg.Output)
		if err != nil {
			return errors.Wrap(err, "could not create output")
		}
		defer pending.Cleanup()
		defer func() {
			if rerr == nil {
				rerr = errors.Wrap(pending.CloseAtomicallyReplace(), "could not replace output")
			}
		}()
		out = pending
	}

	conv := converter{cfg: cfg, stderr: stderr}
	ew := &socutil.ErrWriter{Writer: out}
	for _, name := range names {
		src, err := readInput(name, stdin)
		if err != nil {
			return err
		}
		st, err := conv.convert(ew, src)
		if err != nil {
			return errors.Wrapf(err, "could not convert %s", name)
		}
		if cfg.Stats {
			fmt.Fprintf(stderr, "%s: %s\n", name, st)
		}
	}
	return errors.Wrap(ew.Err, "write error")
}

// expandInputs resolves doublestar patterns among names, preserving order
// and dropping duplicates; no names means stdin.
func expandInputs(names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{"-"}, nil
	}
	var (
		expanded []string
		seen     = make(map[string]bool, len(names))
	)
	for _, name := range names {
		matches := []string{name}
		if name != "-" {
			if _, err := os.Stat(name); os.IsNotExist(err) {
				matches, err = doublestar.FilepathGlob(name)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid pattern %q", name)
				}
				if len(matches) == 0 {
					return nil, errors.Errorf("no inputs match %q", name)
				}
			}
		}
		for _, match := range matches {
			if match != "-" {
				match = filepath.Clean(match)
			}
			if !seen[match] {
				seen[match] = true
				expanded = append(expanded, match)
			}
		}
	}
	return expanded, nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		src, err := io.ReadAll(stdin)
		return src, errors.Wrap(err, "could not read stdin")
	}
	src, err := os.ReadFile(name)
	return src, errors.Wrap(err, "could not read input")
}

type stats struct {
	size   int
	events int
	tokens int
	lists  int
	terms  int
	descs  int
}

func (st stats) String() string {
	if st.events == 0 && st.tokens == 0 {
		return humanize.Bytes(uint64(st.size))
	}
	return fmt.Sprintf("%s, %s events over %s tokens, %s and %s in %s",
		humanize.Bytes(uint64(st.size)),
		humanize.Comma(int64(st.events)),
		humanize.Comma(int64(st.tokens)),
		plural(st.terms, "term"),
		plural(st.descs, "description"),
		plural(st.lists, "definition list"))
}

func plural(n int, singular string) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, singular, "")
}
