// Package worker runs document-to-graph jobs off the caller's goroutine and
// streams their results as messages.
//
// # Protocol
//
// Callers send [Request] values ("PROCESS_JSON" or "CANCEL") and read
// [Message] values from [Worker.Messages]. For one request ID the worker
// emits, in order:
//
//	PROCESSING_PROGRESS*                      throttled, 0-99
//	PROCESSING_PARTIAL[_COMPACT]*             only items not sent before
//	PROCESSING_COMPLETE[_COMPACT]             or
//	PROCESSING_CANCELLED                      or
//	PROCESSING_ERROR
//
// Progress and partial messages may interleave. Exactly one terminal message
// ends every submitted job, including jobs cancelled before they started.
// Appending every partial batch in arrival order yields the same node and
// edge sets as the terminal COMPLETE message.
//
// # Scheduling
//
// A single runner goroutine executes one job at a time. Submitting a job
// requests cancellation of every earlier job that has not finished.
// Cancellation is cooperative: the traversal checks its context every
// CheckpointEvery iterations and after every emitted message.
//
// # Traversal
//
// Jobs walk the document depth-first on an explicit stack, so document depth
// is bounded by memory. Node IDs match those produced by package tree.
// Values reachable from more than one parent (YAML aliases) are visited once.
//
// # Encodings
//
// With Options.Compact set, nodes and edges travel as a [CompactBatch]:
// string columns plus little-endian fixed-width buffers. Buffers are built
// fresh for every message and never touched by the worker afterwards, so the
// receiver owns them. [CompactBatch.Decode] restores the verbose records.
//
// # Flush Tuning
//
// Partial flushes wait for both a minimum batch size and a minimum interval.
// With Options.AutoTune (the default) a [Tuner] adjusts both after every
// flush: it grows them when flushes are too frequent or too small and
// shrinks them when flushes are slow while a large backlog builds up.
package worker
