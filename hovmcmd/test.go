package hovmcmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.brendoncarroll.net/star"
	"golang.org/x/sync/errgroup"

	"hovm.run/hovm/hovml"
	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/ivm1"
)

var testCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run the .hvm programs in a directory and check their expected outputs",
	},
	Flags: machineFlags,
	Pos:   []star.IParam{dirsParam},
	F: func(c star.Context) error {
		dirs := dirsParam.LoadAll(c)
		if len(dirs) == 0 {
			dirs = []string{"."}
		}
		var paths []string
		for _, dir := range dirs {
			matches, err := filepath.Glob(filepath.Join(dir, "*.hvm"))
			if err != nil {
				return err
			}
			paths = append(paths, matches...)
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			c.Printf("no .hvm files\n")
			return nil
		}
		cfg := buildConfig(c)
		workers := cfg.Workers
		if workers == 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		results := make([]error, len(paths))
		eg := errgroup.Group{}
		eg.SetLimit(workers)
		for i, p := range paths {
			i, p := i, p
			eg.Go(func() error {
				results[i] = runTestFile(cfg, p)
				return nil
			})
		}
		eg.Wait()
		var failed int
		for i, p := range paths {
			if results[i] == nil {
				c.Printf("%s PASS\n", p)
			} else {
				c.Printf("%s FAIL: %v\n", p, results[i])
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d programs failed", failed, len(paths))
		}
		return nil
	},
}

var dirsParam = star.Param[string]{
	Name:     "dir",
	Repeated: true,
	Parse:    star.ParseString,
}

// runTestFile evaluates one program.  A `// expect:` comment in the
// source states the normal form the program must print.
func runTestFile(cfg ivm1.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src := string(data)
	prog, err := parser.Parse(src)
	if err != nil {
		return err
	}
	ds := ivm1.NewDefs()
	if err := hovml.LoadProgram(ds, prog); err != nil {
		return err
	}
	s := ivm1.NewState(cfg, ds)
	root, err := hovml.Main(s, prog)
	if err != nil {
		return err
	}
	out, err := s.Normalize(root)
	if err != nil {
		return err
	}
	got := s.Readback(out)
	if want, ok := expectedOutput(src); ok && got != want {
		return fmt.Errorf("got %s, want %s", got, want)
	}
	return nil
}

// expectedOutput extracts the `// expect:` annotation, if any.
func expectedOutput(src string) (string, bool) {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "// expect:"); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

var bench = star.Command{
	Metadata: star.Metadata{
		Short: "time a program and report rewrites per second",
	},
	Flags: machineFlags,
	Pos:   []star.IParam{fileParam},
	F: func(c star.Context) error {
		f := fileParam.Load(c)
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		prog, err := parser.Parse(string(data))
		if err != nil {
			return err
		}
		ds := ivm1.NewDefs()
		if err := hovml.LoadProgram(ds, prog); err != nil {
			return err
		}
		s := ivm1.NewState(buildConfig(c), ds)
		root, err := hovml.Main(s, prog)
		if err != nil {
			return err
		}
		start := time.Now()
		out, err := s.ParallelNormalize(c.Context, root)
		if err != nil {
			return err
		}
		d := time.Since(start)
		n := s.Interactions()
		c.Printf("%s\n", s.Readback(out))
		c.Printf("time:         %v\n", d)
		c.Printf("interactions: %d\n", n)
		c.Printf("rewrites/sec: %.0f\n", float64(n)/d.Seconds())
		return nil
	},
}
