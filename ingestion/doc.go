// Package ingestion provides pipeline orchestration for loading the catalogue.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Validating standards and requirements before anything is written
//   - Adding records to storage in load order
//   - Warming the embedding cache asynchronously
//
// Standards are stored in the order given, which decides which standard a
// requirement joins to when identifiers overlap. Warmup runs on a worker
// pool; its errors are logged and reported by Wait but never fail Ingest.
package ingestion
