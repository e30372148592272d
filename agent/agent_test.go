package agent

import (
	"strings"
	"testing"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/stretchr/testify/require"
)

type result struct{ N int }

func step(n int) *polaris.System[result] {
	return polaris.NewSystem0("step", func(c *polaris.Context) (result, *polaris.SystemError) {
		return result{N: n}, nil
	})
}

type threeStepAgent struct {
	Named
}

func newThreeStepAgent() *threeStepAgent {
	return &threeStepAgent{Named: NewNamed("ThreeStepAgent")}
}

func (a *threeStepAgent) Build(graph *polaris.Graph) {
	graph.AddSystem(step(1)).AddSystem(step(2)).AddSystem(step(3))
}

func TestToGraph_BuildsGraphWithAgentsSystems(t *testing.T) {
	a := newThreeStepAgent()
	graph := ToGraph(a)

	require.Equal(t, 3, graph.NodeCount())
	_, ok := graph.Entry()
	require.True(t, ok)
}

func TestAgent_NamedReturnsConfiguredName(t *testing.T) {
	a := newThreeStepAgent()
	require.Equal(t, "ThreeStepAgent", a.Name())
}

type unnamedAgent struct{}

func (unnamedAgent) Build(graph *polaris.Graph) {
	graph.AddSystem(step(1))
}

func (unnamedAgent) Name() string { return TypeName(unnamedAgent{}) }

func TestTypeName_ContainsStructName(t *testing.T) {
	a := unnamedAgent{}
	require.True(t, strings.Contains(a.Name(), "unnamedAgent"))
}
