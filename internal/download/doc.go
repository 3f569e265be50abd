// Package download provides the concurrent artifact fetcher used by every
// install path of the launcher.
//
// # Manager
//
// The Manager owns a FIFO queue of model.Task values and a fixed pool of
// workers:
//
//  1. Tasks are enqueued, singly or as a batch
//  2. Start launches the workers and a progress ticker
//  3. Each worker skips files whose SHA-1 already matches, otherwise
//     downloads, writes and re-verifies them
//  4. When every task has been processed the run shuts itself down and
//     reports a Summary exactly once
//
// # Basic Usage
//
//	manager := download.NewManager(download.Options{
//	    Workers: 16,
//	    OnProgress: func(p download.Progress) {
//	        fmt.Printf("%d/%d %s\n", p.Done, p.Total, p.CurrentFile)
//	    },
//	    OnFinished: func(s download.Summary) {
//	        fmt.Printf("ok=%d failed=%d\n", s.Succeeded, s.Failed)
//	    },
//	})
//
//	manager.EnqueueBatch(tasks)
//	manager.Start()
//	manager.WaitUntilDone()
//
// # Concurrency
//
// The pool size is clamped to [2, 32] and defaults to 16. Workers block on a
// condition variable while the queue is empty and observe cancellation
// between tasks. Counters are atomics; the current file name is guarded by
// its own mutex.
//
// # Progress Tracking
//
// Progress snapshots are emitted every 150ms by default. A task counts as
// done whether it succeeded or failed, so Done never exceeds Total.
//
// # Integrity
//
// A digest mismatch after download deletes the file and counts the task as
// failed. Failures never abort sibling tasks.
//
// # Retry Logic
//
// Tasks are attempted once unless model.Task.Retries is set, in which case
// network failures are retried with exponential backoff. Integrity failures
// are never retried.
package download
