// Package ingest builds the searchable index from raw documents. The
// pipeline is normalize, redact, chunk, embed, append; batches run
// concurrently on a worker pool with index appends serialized.
package ingest
