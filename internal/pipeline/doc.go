// Package pipeline runs image files through the analysis steps.
//
// Each file becomes a Job that passes through load, decode, forensics and
// recommend steps in order. Every step receives the job and fills in what it
// produces, and the final AnalysisReport is carried on the job.
//
// BatchProcessor analyzes many files concurrently using errgroup with a
// concurrency limit. Individual file failures are recorded in their reports
// and do not stop the batch.
package pipeline
