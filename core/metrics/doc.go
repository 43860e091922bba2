// Package metrics defines the sinks recording scheduling activity. Every
// sink records plan summaries; sinks may also implement ConflictRecorder
// and DispatchRecorder. Several sinks combine with NewMultiSink, which the
// factory returns automatically when more than one sink is configured.
package metrics
