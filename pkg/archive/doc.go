// Package archive persists export results.
//
// JSONSink replaces a single JSON document atomically on every write.
// SQLiteSink keeps an append-only database across runs; a post id that is
// already stored is left untouched, the same first-writer-wins rule the
// exporter's merge store applies within one run.
package archive
