// Package pipeline runs rotation analysis over a star list.
//
// [Runner] fetches each star's light curves, measures every sector, appends
// the star's row to the raw table and commits it to the checkpoint store.
// Stars already in the checkpoint are skipped, so a run can be restarted at
// any time. Per-star failures are logged to the failure log and never stop
// the run.
//
// [Summarize] reconciles a finished raw table into the per-star summary.
package pipeline
