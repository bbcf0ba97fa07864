// Package sinks implements concrete progress consumers: a structured log line
// per event and a publisher fan-out. Each sink satisfies progress.Sink.
package sinks
