package emit

import (
	"sort"
	"strings"
)

// useSet collects import lines. Names imported from the same module merge
// into one line.
type useSet struct {
	byKey map[string]*use
}

type use struct {
	module string
	alias  string
	names  map[string]bool
}

func newUseSet() *useSet {
	return &useSet{byKey: map[string]*use{}}
}

func (s *useSet) get(module, alias string) *use {
	key := module + " " + alias
	u, ok := s.byKey[key]
	if !ok {
		u = &use{module: module, alias: alias, names: map[string]bool{}}
		s.byKey[key] = u
	}
	return u
}

// add imports name unqualified from module. An empty name imports the
// module itself.
func (s *useSet) add(module, name string) {
	u := s.get(module, "")
	if name != "" {
		u.names[name] = true
	}
}

// module imports a whole module, optionally under an alias.
func (s *useSet) module(module, alias string) {
	s.get(module, alias)
}

// lines renders the imports sorted by module, then alias.
func (s *useSet) lines() []string {
	all := make([]*use, 0, len(s.byKey))
	for _, u := range s.byKey {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].module != all[j].module {
			return all[i].module < all[j].module
		}
		return all[i].alias < all[j].alias
	})

	out := make([]string, 0, len(all))
	for _, u := range all {
		line := "use " + u.module
		if len(u.names) > 0 {
			names := make([]string, 0, len(u.names))
			for n := range u.names {
				names = append(names, n)
			}
			sort.Strings(names)
			line += ".{" + strings.Join(names, ", ") + "}"
		}
		if u.alias != "" {
			line += " as " + u.alias
		}
		out = append(out, line)
	}
	return out
}
