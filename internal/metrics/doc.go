// Package metrics provides the pipeline's metrics hooks.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	orch := orchestrator.New(reg, store, orchestrator.WithRecorder(metrics.NoopRecorder{}))
//
// The Prometheus implementation registers its collectors on the supplied
// registry; Handler exposes that registry over HTTP for the scheduler daemon.
package metrics
