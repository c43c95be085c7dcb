// Package viz renders a live terminal view of a running simulation: mean
// trait frequencies over time, plus a ternary trajectory plot for
// three-trait systems. The view never steps the model itself; it drives a
// pacing.Scheduler and reads state snapshots taken on the scheduler's
// goroutine.
package viz
