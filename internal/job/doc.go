// Package job defines the contract between the pipeline and the external
// programs that do the numerical work.
//
// A Spec names a program, its fully assembled arguments, the outputs it is
// required to produce and its resource hints. A Runner submits one spec and
// blocks until the job has finished and its declared outputs have been
// verified. The pipeline gets concurrency by submitting from several
// goroutines through a Scheduler, which admits jobs by CPU weight.
//
// The package performs no retries. A failed job surfaces as an
// ExternalJobFailure and the caller decides which dependent units it takes
// down with it.
package job
