package hookgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claude-wm-cli/internal/hookdef"
)

func def(name string) hookdef.HookDefinition {
	return hookdef.HookDefinition{
		Name:           name,
		TimeoutSeconds: 30,
		Stage:          hookdef.StageFast,
		SecurityLevel:  hookdef.SecurityMedium,
	}
}

func names(w Wave) []string {
	out := make([]string, len(w))
	for i, h := range w {
		out[i] = h.Name
	}
	return out
}

func TestDecompose_IndependentHooksFormASingleWave(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("ruff-check"), def("bandit")}
	waves, err := Decompose(hooks, DependencyMap{})
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"ruff-check", "bandit"}, names(waves[0]))
}

func TestDecompose_RespectsPrerequisiteOrdering(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("refurb"), def("zuban"), def("ruff-check"), def("ruff-format")}
	deps := DependencyMap{
		"refurb":     {"zuban"},
		"ruff-check": {"ruff-format"},
	}

	waves, err := Decompose(hooks, deps)
	require.NoError(t, err)
	require.Len(t, waves, 2)
	assert.ElementsMatch(t, []string{"zuban", "ruff-format"}, names(waves[0]))
	assert.ElementsMatch(t, []string{"refurb", "ruff-check"}, names(waves[1]))
}

func TestDecompose_IgnoresPrerequisiteNotInStrategy(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("refurb")}
	deps := DependencyMap{"refurb": {"zuban"}} // zuban absent from hooks

	waves, err := Decompose(hooks, deps)
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"refurb"}, names(waves[0]))
}

func TestDecompose_CycleReturnsErrorAndNoFurtherWaves(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("a"), def("b")}
	deps := DependencyMap{
		"a": {"b"},
		"b": {"a"},
	}

	waves, err := Decompose(hooks, deps)
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.Remaining)
	assert.Empty(t, waves)
}

func TestDecompose_WaveOrderPreservesDefinitionOrderWithinWave(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("z"), def("a"), def("m")}
	waves, err := Decompose(hooks, DependencyMap{})
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []string{"z", "a", "m"}, names(waves[0]), "wave must preserve strategy definition order, not alphabetical")
}

func TestDecompose_ThreeLevelChainProducesThreeWaves(t *testing.T) {
	hooks := []hookdef.HookDefinition{def("c"), def("b"), def("a")}
	deps := DependencyMap{
		"c": {"b"},
		"b": {"a"},
	}
	waves, err := Decompose(hooks, deps)
	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Equal(t, []string{"a"}, names(waves[0]))
	assert.Equal(t, []string{"b"}, names(waves[1]))
	assert.Equal(t, []string{"c"}, names(waves[2]))
}
