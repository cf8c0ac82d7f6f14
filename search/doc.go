// Package search provides query-time retrieval: queries are normalized
// and redacted the same way ingested documents were, embedded, and
// matched against the vector index with a similarity floor.
package search
