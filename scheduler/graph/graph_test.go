package graph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/heft/scheduler/cost"
	"github.com/twitter/heft/scheduler/domain"
)

func testModel(t *testing.T) *cost.Model {
	m, err := cost.NewModel([]domain.Processor{
		{ID: 1, Cores: 1, Capacity: 1},
		{ID: 2, Cores: 2, Capacity: 1},
	}, cost.DefaultScale, nil)
	if err != nil {
		t.Fatalf("unexpected error building model: %v", err)
	}
	return m
}

func Test_Build_Chains(t *testing.T) {
	g, err := Build([]int{1, 2, 3, 4, 5, 6, 7}, 3, testModel(t))
	assert.Nil(t, err)

	chains := g.Chains()
	assert.Equal(t, []int{0, 3, 6}, chains[0])
	assert.Equal(t, []int{1, 4}, chains[1])
	assert.Equal(t, []int{2, 5}, chains[2])

	assert.Equal(t, []int{3}, g.Tasks[0].Successors)
	assert.Equal(t, []int{0}, g.Tasks[3].Predecessors)
	assert.Empty(t, g.Tasks[6].Successors, "last task of a chain is a sink")
	assert.Equal(t, []int{0, 1, 2}, g.Sources())
	assert.Equal(t, []int{4, 5, 6}, g.Sinks())

	assert.Equal(t, 40000.0, g.Tasks[1].Costs[1])
	assert.Equal(t, 20000.0, g.Tasks[1].Costs[2])
}

func Test_Build_FewerTasksThanChains(t *testing.T) {
	g, err := Build([]int{4, 2}, 5, testModel(t))
	assert.Nil(t, err)
	assert.Equal(t, []int{0, 1}, g.Sources())
	assert.Equal(t, 2, len(g.Chains()))
}

func Test_Build_Errors(t *testing.T) {
	_, err := Build([]int{1}, 0, testModel(t))
	assert.True(t, domain.IsConfigurationError(err))

	_, err = Build([]int{1, -2}, 1, testModel(t))
	assert.True(t, domain.IsConfigurationError(err))
}

func Test_TopologicalOrder_Diamond(t *testing.T) {
	g := diamond(t)
	order, err := g.TopologicalOrder()
	assert.Nil(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func Test_TopologicalOrder_Cycle(t *testing.T) {
	g := diamond(t)
	assert.Nil(t, g.AddEdge(3, 1))
	_, err := g.TopologicalOrder()
	if assert.Error(t, err) {
		assert.True(t, domain.IsCycleDetectedError(err))
	}
}

func Test_AddEdge_UnknownTask(t *testing.T) {
	g := diamond(t)
	assert.Error(t, g.AddEdge(0, 9))
	// duplicate is a no-op
	assert.Nil(t, g.AddEdge(0, 1))
	assert.Equal(t, []int{1, 2}, g.Tasks[0].Successors)
}

// 0 -> 1 -> 3, 0 -> 2 -> 3
func diamond(t *testing.T) *TaskGraph {
	tasks := make([]*domain.Task, 4)
	for i := range tasks {
		tasks[i] = &domain.Task{ID: i, Index: i + 1}
	}
	g, err := New(tasks)
	assert.Nil(t, err)
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}} {
		assert.Nil(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func Test_Build_Properties(t *testing.T) {
	model := testModel(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("chain graphs are acyclic with min(K,N) sources and degree <= 1", prop.ForAll(
		func(values []int, chains int) bool {
			g, err := Build(values, chains, model)
			if err != nil {
				return false
			}
			if _, err := g.TopologicalOrder(); err != nil {
				return false
			}
			for _, task := range g.Tasks {
				if len(task.Predecessors) > 1 || len(task.Successors) > 1 {
					return false
				}
				for _, s := range task.Successors {
					if g.Tasks[s].Chain != task.Chain {
						return false
					}
				}
			}
			expectedSources := chains
			if len(values) < chains {
				expectedSources = len(values)
			}
			return len(g.Sources()) == expectedSources
		},
		gen.SliceOf(gen.IntRange(1, 10)),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
