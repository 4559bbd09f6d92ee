// Package hovmcmd implements the hovm command line tool.
package hovmcmd

import (
	"os"
	"strconv"

	"go.brendoncarroll.net/star"
	"gopkg.in/yaml.v2"

	"hovm.run/hovm/ivm1"
)

func Root() star.Command {
	return root
}

var root = star.NewDir(star.Metadata{
	Short: "Higher-Order Virtual Machine",
}, map[star.Symbol]star.Command{
	"run":   run,
	"eval":  evalCmd,
	"parse": parseCmd,

	"test":  testCmd,
	"bench": bench,

	"examples": examplesCmd,
	"repl":     repl,
})

var configParam = star.Param[ivm1.Config]{
	Name:    "config",
	Default: star.Ptr(""),
	Parse: func(x string) (ivm1.Config, error) {
		cfg := ivm1.DefaultConfig()
		if x == "" {
			return cfg, nil
		}
		data, err := os.ReadFile(x)
		if err != nil {
			return ivm1.Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ivm1.Config{}, err
		}
		return cfg, nil
	},
}

var heapParam = star.Param[uint32]{
	Name:    "heap",
	Default: star.Ptr("0"),
	Parse:   parseU32,
}

var stackParam = star.Param[int]{
	Name:    "stack",
	Default: star.Ptr("0"),
	Parse:   strconv.Atoi,
}

var workersParam = star.Param[int]{
	Name:    "workers",
	Default: star.Ptr("0"),
	Parse:   strconv.Atoi,
}

var collapseParam = star.Param[int]{
	Name:    "collapse",
	Default: star.Ptr("0"),
	Parse:   strconv.Atoi,
}

var fileParam = star.Param[*os.File]{
	Name: "f",
	Parse: func(x string) (*os.File, error) {
		return os.Open(x)
	},
}

var exprParam = star.Param[string]{Name: "expr", Parse: star.ParseString}

func parseU32(x string) (uint32, error) {
	n, err := strconv.ParseUint(x, 10, 32)
	return uint32(n), err
}

var machineFlags = []star.IParam{configParam, heapParam, stackParam, workersParam}

// buildConfig merges the yaml config with the individual flag overrides.
func buildConfig(c star.Context) ivm1.Config {
	cfg := configParam.Load(c)
	if n := heapParam.Load(c); n > 0 {
		cfg.HeapSize = n
	}
	if n := stackParam.Load(c); n > 0 {
		cfg.StackSize = n
	}
	if n := workersParam.Load(c); n > 0 {
		cfg.Workers = n
	}
	return cfg
}

func newMachine(c star.Context) *ivm1.State {
	return ivm1.NewState(buildConfig(c), ivm1.NewDefs())
}
