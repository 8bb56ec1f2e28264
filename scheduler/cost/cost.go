// Package cost estimates how long a task takes on each processor and what it
// costs to move a task's output between processors. All values are in abstract
// cost units; the engine converts them to wall time with a configured unit.
package cost

import (
	"fmt"

	"github.com/twitter/heft/scheduler/domain"
)

// Multiplier applied to index² in the reference workload.
const DefaultScale = 10000.0

// Communication cost between any two distinct processors unless overridden.
const DefaultCommCost = 1.0

// ComputationCost is (index² × scale) / cores.
func ComputationCost(index int, cores int, scale float64) float64 {
	return float64(index) * float64(index) * scale / float64(cores)
}

// Model holds the processors a batch is planned against and the communication
// matrix between them. It is immutable after NewModel returns.
type Model struct {
	scale      float64
	processors []domain.Processor // ascending id
	cores      map[int]int
	comm       *CommMatrix
}

// NewModel validates the processor set and matrix. comm may be nil, in which
// case every distinct pair costs DefaultCommCost.
func NewModel(processors []domain.Processor, scale float64, comm *CommMatrix) (*Model, error) {
	if len(processors) == 0 {
		return nil, domain.NewConfigurationError("no processors configured")
	}
	if scale <= 0 {
		return nil, domain.NewConfigurationError("cost scale must be positive, got %v", scale)
	}
	if comm == nil {
		comm = NewCommMatrix(DefaultCommCost)
	}
	if err := comm.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		scale:      scale,
		processors: domain.SortProcessors(processors),
		cores:      map[int]int{},
		comm:       comm,
	}
	for _, p := range m.processors {
		if p.Cores <= 0 {
			return nil, domain.NewConfigurationError("processor %d must have a positive core count, got %d", p.ID, p.Cores)
		}
		if _, ok := m.cores[p.ID]; ok {
			return nil, domain.NewConfigurationError("duplicate processor id %d", p.ID)
		}
		m.cores[p.ID] = p.Cores
	}
	return m, nil
}

// Processors returns the processors in ascending id order.
func (m *Model) Processors() []domain.Processor {
	return append([]domain.Processor(nil), m.processors...)
}

func (m *Model) Scale() float64 {
	return m.scale
}

// Costs computes the per-processor cost map for a task of the given index.
func (m *Model) Costs(index int) map[int]float64 {
	costs := make(map[int]float64, len(m.processors))
	for _, p := range m.processors {
		costs[p.ID] = ComputationCost(index, p.Cores, m.scale)
	}
	return costs
}

// TaskCost is the cost of the task on the given processor. Tasks built outside
// the graph builder may carry their own Costs; those take precedence.
func (m *Model) TaskCost(t *domain.Task, processorID int) float64 {
	if c, ok := t.Costs[processorID]; ok {
		return c
	}
	return ComputationCost(t.Index, m.cores[processorID], m.scale)
}

// AverageComputationCost is the mean of TaskCost over every processor.
func (m *Model) AverageComputationCost(t *domain.Task) float64 {
	sum := 0.0
	for _, p := range m.processors {
		sum += m.TaskCost(t, p.ID)
	}
	return sum / float64(len(m.processors))
}

// CommunicationCost between the processors running a predecessor and a successor.
func (m *Model) CommunicationCost(from, to int) float64 {
	return m.comm.Cost(from, to)
}

// AverageCommunicationCost is the mean over all ordered pairs of distinct
// processors, used while ranking because the real placement isn't known yet.
func (m *Model) AverageCommunicationCost() float64 {
	if len(m.processors) < 2 {
		return 0
	}
	sum := 0.0
	n := 0
	for _, a := range m.processors {
		for _, b := range m.processors {
			if a.ID == b.ID {
				continue
			}
			sum += m.comm.Cost(a.ID, b.ID)
			n++
		}
	}
	return sum / float64(n)
}

func (m *Model) String() string {
	return fmt.Sprintf("cost model(scale:%v, processors:%d, comm:%s)", m.scale, len(m.processors), m.comm)
}
