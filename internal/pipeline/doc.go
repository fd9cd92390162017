// Package pipeline provides a framework for executing analysis steps in
// sequence.
//
// The pipeline pattern is used to move a crawl log through its stages:
// parsing, image size enrichment, histogram computation, and persistence.
// Each stage is implemented as a Step that receives the current analysis
// and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running enrichment
//
// The pipeline supports both individual runs and batch processing of
// multiple logs with concurrency control using errgroup.
package pipeline
