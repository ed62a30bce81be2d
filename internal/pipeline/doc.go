// Package pipeline sequences the stages of a validation run.
//
// A run takes a batch of candidate endpoints through reference IP
// resolution, concurrent probing, optional country enrichment, and
// summary computation. Each stage implements Step and communicates with
// the others only through the shared RunState, so stages can be added,
// reordered, or left out (no geo database, probe-only runs) without
// touching the execution loop. Execute owns cancellation and per-step
// logging; inside the probe step the Scheduler fans candidates out over
// an errgroup-bounded worker pool.
package pipeline
