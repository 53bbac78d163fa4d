// Command scanex dumps the event streams produced while parsing markdown from
// stdin: the raw tokenizer output, the stream after definition list
// resolution, and the stream after inline tokenization.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/pion/logging"
	"github.com/spf13/pflag"

	"github.com/jcorbin/scandl/deflist"
	"github.com/jcorbin/scandl/internal/inline"
	"github.com/jcorbin/scandl/internal/socutil"
	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

type dumper struct {
	verbose bool
	pretty  bool
	hexdump bool
}

func main() {
	var (
		in     = os.Stdin
		out    = &socutil.ErrWriter{Writer: os.Stdout}
		dump   dumper
		policy string
		trace  bool
	)

	pflag.BoolVarP(&dump.verbose, "verbose", "v", false, "dump events indented with token positions")
	pflag.BoolVar(&dump.pretty, "pp", false, "pretty print each entered token")
	pflag.BoolVarP(&dump.hexdump, "hex", "x", false, "hexdump the source of leaf tokens")
	pflag.StringVar(&policy, "blank-policy", deflist.CloseAfterBlankStart.String(), "description blank line policy")
	pflag.BoolVar(&trace, "trace", false, "interleave tokenizer trace logging")
	pflag.Parse()

	logOut := socutil.PrefixWriter("> log: ", out)
	defer logOut.Close()
	log.SetOutput(logOut)
	log.SetFlags(0)

	blankPolicy, ok := deflist.ParseBlankLinePolicy(policy)
	if !ok {
		log.Fatalf("invalid blank line policy %q", policy)
	}

	factory := deflist.DisabledLoggerFactory()
	if trace {
		factory = &logging.DefaultLoggerFactory{
			Writer:          logOut,
			DefaultLogLevel: logging.LogLevelTrace,
			ScopeLevels:     map[string]logging.LogLevel{},
		}
	}

	src, err := io.ReadAll(in)
	if err != nil {
		log.Fatalf("read error: %v", err)
	}

	ext := deflist.New(deflist.WithBlankLinePolicy(blankPolicy), deflist.WithLoggerFactory(factory))
	tz := scandown.Tokenizer{
		Extensions: []scandown.ContainerExtension{ext},
		Logger:     factory.NewLogger("scandown"),
	}
	doc := tz.Tokenize(src)
	dump.stage(out, "tokenized", doc)

	ext.Resolve(doc)
	dump.stage(out, "resolved", doc)

	inline.Tokenize(doc)
	dump.stage(out, "inline", doc)

	if out.Err != nil {
		log.Fatalf("write error: %v", out.Err)
	}
	if err := mdevent.Check(doc); err != nil {
		fmt.Fprintf(out, "# check error\n%v\n", err)
		os.Exit(1)
	}
}

func (d dumper) stage(out io.Writer, name string, doc *mdevent.Document) {
	fmt.Fprintf(out, "# %s\n", name)

	if d.verbose {
		docOut := socutil.PrefixWriter("    ", out)
		fmt.Fprintf(docOut, "%+v\n", doc)
		docOut.Close()
		return
	}

	depth, i := 0, 0
	socutil.WriteLines(out, func(w io.Writer, _ func()) bool {
		if i >= len(doc.Events) {
			return false
		}
		ev := doc.Events[i]
		i++

		if ev.Kind == mdevent.Exit {
			depth--
		}
		width, _ := fmt.Fprintf(w, "%v. %s", i, strings.Repeat("  ", depth))
		itemOut := socutil.PrefixWriter(strings.Repeat(" ", width), w)
		itemOut.Skip = true
		defer itemOut.Close()
		if ev.Kind == mdevent.Enter {
			depth++
		}

		fmt.Fprintf(itemOut, "%s\n", doc.EventString(i-1))
		if ev.Kind != mdevent.Enter {
			return true
		}

		if d.pretty {
			pp.Fprintln(itemOut, *doc.Token(ev.Token))
		}

		if token := doc.Slice(ev.Token); d.hexdump && len(token) > 0 &&
			i < len(doc.Events) && doc.Events[i].Token == ev.Token {
			io.WriteString(itemOut, "```hexdump\n")
			hd := hex.Dumper(itemOut)
			hd.Write(token)
			hd.Close()
			io.WriteString(itemOut, "```\n")
		}
		return true
	})
}
