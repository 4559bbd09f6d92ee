package hovmcmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.brendoncarroll.net/star"

	"hovm.run/hovm/hovml"
	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/hovmexpr"
	"hovm.run/hovm/ivm1"
)

const (
	replPrompt  = "hovm> "
	historyFile = ".hovm_history"
	replHelp    = `commands:
  :help        show this help
  :quit        exit the repl
  :reset       discard all definitions and heap contents
  :stats       print the machine counters
anything else is parsed as a definition (@name = term) or an expression.
`
)

var repl = star.Command{
	Metadata: star.Metadata{
		Short: "interactive read-eval-print loop",
	},
	Flags: machineFlags,
	F: func(c star.Context) error {
		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		histPath := historyFile
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, historyFile)
		}
		if f, err := os.Open(histPath); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}

		cfg := buildConfig(c)
		ds := ivm1.NewDefs()
		s := ivm1.NewState(cfg, ds)

		for {
			line, err := ln.Prompt(replPrompt)
			if err != nil {
				// Ctrl+C cancels the line, Ctrl+D exits.
				if err == liner.ErrPromptAborted {
					continue
				}
				c.Printf("\n")
				break
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			ln.AppendHistory(line)

			if strings.HasPrefix(strings.TrimSpace(line), ":") {
				quit := false
				switch strings.Fields(line)[0] {
				case ":help":
					c.Printf("%s", replHelp)
				case ":quit", ":exit":
					quit = true
				case ":reset":
					ds = ivm1.NewDefs()
					s = ivm1.NewState(cfg, ds)
					c.Printf("machine reset\n")
				case ":stats":
					printStats(c, s)
				default:
					c.Printf("unknown command %q, try :help\n", line)
				}
				if quit {
					break
				}
				continue
			}

			if err := replEval(c, s, ds, line); err != nil {
				c.Printf("error: %v\n", err)
			}
		}

		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
		return nil
	},
}

// replEval handles one line: definitions register, expressions evaluate.
func replEval(c star.Context, s *ivm1.State, ds *ivm1.Defs, line string) error {
	prog, err := parser.Parse(line)
	if err != nil {
		return err
	}
	if err := hovml.LoadProgram(ds, prog); err != nil {
		return err
	}
	for _, def := range prog.Defs {
		sigil := "@"
		if def.Alias {
			sigil = "@@"
		}
		c.Printf("defined %s%s\n", sigil, def.Name)
	}
	if prog.Main == nil {
		return nil
	}
	root, err := hovmexpr.Load(s, prog.Main)
	if err != nil {
		return err
	}
	out, err := s.Normalize(root)
	if err != nil {
		return err
	}
	c.Printf("%s\n", s.Readback(out))
	return nil
}
