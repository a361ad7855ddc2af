/*
Package scheduler is the admission and resource-accounting core every
starter submits candidate jobs to, plus the timed-queue framework that
drives starters on a period.

# Timed queue

TimedQueue holds named deferred closures in a min-heap ordered by
firing time; a single goroutine drains due entries in monotonic order,
running each to completion before pulling the next. Re-inserting under
a name already queued replaces that entry's firing time and closure,
which is how RegisterPeriodicFunc re-arms itself after every run
instead of using a plain time.Ticker per starter.

	q := scheduler.NewTimedQueue()
	q.Start()
	defer q.Stop()
	q.AddTaskIn("recover_dc", 0, runRecoverDC)

# Scheduler

Scheduler tracks a percent-of-100 utilisation table per ResourceKey,
keyed by the job that reserved it. CreateJobs is the single entry
point starters submit ordered candidate lists to; it recomputes the
table from authoritative job state, then admits candidates one at a
time, preempting lower-priority conflicting jobs when needed and
stopping once the type's configured concurrency cap is reached.

	sched := scheduler.New(processor, registry, historyStore, jobPriorities, resLimits)
	created := sched.CreateJobs(types.JobTypeMove, candidates, schedParams)
*/
package scheduler
