package cost

import (
	"fmt"

	"github.com/twitter/heft/scheduler/domain"
)

type procPair struct {
	from, to int
}

// CommMatrix is the communication cost between ordered pairs of distinct
// processors. Every pair falls back to a default, so the matrix is defined for
// all of them; overrides may make it asymmetric.
type CommMatrix struct {
	defaultCost float64
	overrides   map[procPair]float64
}

func NewCommMatrix(defaultCost float64) *CommMatrix {
	return &CommMatrix{defaultCost: defaultCost, overrides: map[procPair]float64{}}
}

// Set overrides the cost of sending from one processor to another.
func (c *CommMatrix) Set(from, to int, cost float64) *CommMatrix {
	c.overrides[procPair{from, to}] = cost
	return c
}

// SetSymmetric overrides both directions between a and b.
func (c *CommMatrix) SetSymmetric(a, b int, cost float64) *CommMatrix {
	return c.Set(a, b, cost).Set(b, a, cost)
}

// Cost is zero when both endpoints of an edge are on the same processor.
func (c *CommMatrix) Cost(from, to int) float64 {
	if from == to {
		return 0
	}
	if v, ok := c.overrides[procPair{from, to}]; ok {
		return v
	}
	return c.defaultCost
}

func (c *CommMatrix) Validate() error {
	if c.defaultCost < 0 {
		return domain.NewConfigurationError("communication cost must be non-negative, got %v", c.defaultCost)
	}
	for k, v := range c.overrides {
		if k.from == k.to {
			return domain.NewConfigurationError("communication cost override for processor %d to itself", k.from)
		}
		if v < 0 {
			return domain.NewConfigurationError("communication cost %d->%d must be non-negative, got %v", k.from, k.to, v)
		}
	}
	return nil
}

func (c *CommMatrix) String() string {
	return fmt.Sprintf("{default:%v, overrides:%d}", c.defaultCost, len(c.overrides))
}
