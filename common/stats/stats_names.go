package stats

/*
This file defines all the metrics being collected. As new metrics are added please follow this pattern.
*/

const (
	/************************* Planner metrics **************************/
	/*
		the time it takes an algorithm to produce a schedule
	*/
	PlannerPlanLatency_ms = "planLatency_ms"

	/*
		number of tasks placed by an algorithm
	*/
	PlannerTasksPlacedCounter = "tasksPlacedCounter"

	/*
		number of HEFT placements that landed in an idle gap before the processor's last busy interval
	*/
	PlannerInsertedIntoGapCounter = "insertedIntoGapCounter"

	/*
		the scheduled makespan of the last plan, in cost units
	*/
	PlannerScheduledMakespanGauge = "scheduledMakespanGauge"

	/************************* Dispatcher metrics **************************/
	/*
		number of remote execution requests issued
	*/
	DispatcherTasksDispatchedCounter = "tasksDispatchedCounter"

	/*
		number of remote execution requests that completed successfully
	*/
	DispatcherTasksSucceededCounter = "tasksSucceededCounter"

	/*
		number of remote execution requests that failed (timeout, transport, non-2xx)
	*/
	DispatcherTasksFailedCounter = "tasksFailedCounter"

	/*
		number of remote execution requests currently in flight across all processors
	*/
	DispatcherInFlightGauge = "inFlightGauge"

	/*
		time from dispatch to response for a single task
	*/
	DispatcherTaskLatency_ms = "taskLatency_ms"

	/*
		time a ready task waited for its processor's concurrency slot
	*/
	DispatcherSlotWaitLatency_ms = "slotWaitLatency_ms"

	/************************* Run metrics **************************/
	/*
		actual makespan of the last run, in milliseconds
	*/
	RunMakespanGauge_ms = "makespanGauge_ms"

	/*
		actual makespan minus scheduled makespan, in milliseconds
	*/
	RunDeviationGauge_ms = "deviationGauge_ms"

	/*
		successful tasks per second
	*/
	RunThroughputGauge = "throughputGauge"

	/*
		percentage of processor time spent busy
	*/
	RunResourceUtilizationGauge = "resourceUtilizationGauge"

	/*
		stddev/mean of per-processor busy time
	*/
	RunImbalanceDegreeGauge = "imbalanceDegreeGauge"

	/*
		number of processors answering the liveness probe at the start of a run
	*/
	RunLiveProcessorsGauge = "liveProcessorsGauge"

	/************************* Worker server metrics **************************/
	/*
		number of execute requests received by a worker
	*/
	WorkerExecuteRequestCounter = "executeRequestCounter"

	/*
		number of execute requests rejected as malformed
	*/
	WorkerBadRequestCounter = "badRequestCounter"

	/*
		time spent computing a task on the worker
	*/
	WorkerExecuteLatency_ms = "executeLatency_ms"

	/*
		number of execute requests running on the worker right now
	*/
	WorkerRunningGauge = "runningGauge"
)
