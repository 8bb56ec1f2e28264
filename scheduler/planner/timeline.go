package planner

import (
	"sort"

	"github.com/twitter/heft/scheduler/domain"
)

type interval struct {
	start, finish float64
	taskID        int
}

// timeline is the sorted, non-overlapping list of busy intervals committed to
// one processor during a planning pass.
type timeline struct {
	busy []interval
}

// earliestStart returns the first start >= ready at which duration fits,
// either inside an idle gap or after the last busy interval. gap reports
// whether the slot lies before the last busy interval.
func (tl *timeline) earliestStart(ready, duration float64) (start float64, gap bool) {
	start = ready
	for _, iv := range tl.busy {
		if start+duration <= iv.start {
			return start, true
		}
		if iv.finish > start {
			start = iv.finish
		}
	}
	return start, false
}

// availableAt is the finish of the last busy interval, or zero.
func (tl *timeline) availableAt() float64 {
	if len(tl.busy) == 0 {
		return 0
	}
	return tl.busy[len(tl.busy)-1].finish
}

func (tl *timeline) commit(taskID int, start, finish float64) {
	i := sort.Search(len(tl.busy), func(i int) bool { return tl.busy[i].start >= start })
	tl.busy = append(tl.busy, interval{})
	copy(tl.busy[i+1:], tl.busy[i:])
	tl.busy[i] = interval{start: start, finish: finish, taskID: taskID}
}

// timelines keys one timeline per processor id.
type timelines map[int]*timeline

func newTimelines(processors []domain.Processor) timelines {
	tls := timelines{}
	for _, p := range processors {
		tls[p.ID] = &timeline{}
	}
	return tls
}
