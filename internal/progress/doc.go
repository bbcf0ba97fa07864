// Package progress carries the per-row events the batch emits while it works
// through a sheet page. Events are delivered in order, synchronously, to every
// registered sink; a failing sink is logged and never stops the batch.
package progress
