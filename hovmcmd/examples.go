package hovmcmd

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"go.brendoncarroll.net/star"
)

//go:embed examples/*.hvm
var examplesFS embed.FS

// Examples returns the bundled example programs, keyed by name.
func Examples() map[string]string {
	out := make(map[string]string)
	ents, err := examplesFS.ReadDir("examples")
	if err != nil {
		panic(err)
	}
	for _, ent := range ents {
		data, err := examplesFS.ReadFile(path.Join("examples", ent.Name()))
		if err != nil {
			panic(err)
		}
		out[ent.Name()] = string(data)
	}
	return out
}

var examplesCmd = star.Command{
	Metadata: star.Metadata{
		Short: "list the bundled example programs, or print one",
	},
	Pos: []star.IParam{exampleNamesParam},
	F: func(c star.Context) error {
		exs := Examples()
		names := exampleNamesParam.LoadAll(c)
		if len(names) == 0 {
			var all []string
			for name := range exs {
				all = append(all, name)
			}
			sort.Strings(all)
			for _, name := range all {
				c.Printf("%s\n", name)
			}
			return nil
		}
		for _, name := range names {
			src, ok := exs[name]
			if !ok {
				return fmt.Errorf("no example named %q", name)
			}
			c.Printf("%s", src)
		}
		return nil
	},
}

var exampleNamesParam = star.Param[string]{
	Name:     "name",
	Repeated: true,
	Parse:    star.ParseString,
}
