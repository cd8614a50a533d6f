// Package hookgraph decomposes a hook strategy into dependency-respecting
// execution waves using Kahn's algorithm over a static hook-name
// prerequisite map.
package hookgraph

import (
	"fmt"

	"claude-wm-cli/internal/hookdef"
)

// DependencyMap is the static dependent -> prerequisite[] map over hook
// names. A prerequisite name absent from the strategy being decomposed is
// silently ignored.
type DependencyMap map[string][]string

// CycleError is returned when no further hooks can be emitted but hooks
// remain: the remaining hook names participate in (or depend transitively
// on) a cycle.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among hooks: %v", e.Remaining)
}

// Wave is one batch of hooks with no prerequisite among themselves.
type Wave []hookdef.HookDefinition

// Decompose builds in-waves for hooks according to deps. Hooks within a wave
// preserve the definition order of hooks (the input strategy's order),
// making wave emission deterministic. If a cycle prevents progress, it
// returns the waves computed so far (possibly empty) together with a
// *CycleError naming every hook that could not be emitted.
func Decompose(hooks []hookdef.HookDefinition, deps DependencyMap) ([]Wave, error) {
	present := make(map[string]struct{}, len(hooks))
	for _, h := range hooks {
		present[h.Name] = struct{}{}
	}

	// prereqsOf[name] = prerequisites of name that are also in `hooks`.
	// dependents[name] = hooks that list name as a prerequisite.
	prereqsOf := make(map[string][]string, len(hooks))
	dependents := make(map[string][]string, len(hooks))
	indegree := make(map[string]int, len(hooks))

	for _, h := range hooks {
		var live []string
		for _, prereq := range deps[h.Name] {
			if _, ok := present[prereq]; ok {
				live = append(live, prereq)
			}
		}
		prereqsOf[h.Name] = live
		indegree[h.Name] = len(live)
		for _, prereq := range live {
			dependents[prereq] = append(dependents[prereq], h.Name)
		}
	}

	byName := make(map[string]hookdef.HookDefinition, len(hooks))
	for _, h := range hooks {
		byName[h.Name] = h
	}

	remaining := make(map[string]struct{}, len(hooks))
	for _, h := range hooks {
		remaining[h.Name] = struct{}{}
	}

	var waves []Wave
	for len(remaining) > 0 {
		var ready []string
		for _, h := range hooks { // iterate in definition order for determinism
			if _, stillIn := remaining[h.Name]; !stillIn {
				continue
			}
			if indegree[h.Name] == 0 {
				ready = append(ready, h.Name)
			}
		}

		if len(ready) == 0 {
			names := make([]string, 0, len(remaining))
			for _, h := range hooks {
				if _, stillIn := remaining[h.Name]; stillIn {
					names = append(names, h.Name)
				}
			}
			return waves, &CycleError{Remaining: names}
		}

		wave := make(Wave, 0, len(ready))
		for _, name := range ready {
			wave = append(wave, byName[name])
			delete(remaining, name)
		}
		waves = append(waves, wave)

		for _, name := range ready {
			for _, dependent := range dependents[name] {
				indegree[dependent]--
			}
		}
	}

	return waves, nil
}
