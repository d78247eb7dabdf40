// Package reembed rebuilds the embedding cache for every stored requirement,
// typically after switching embedding models.
//
// Requirements are read in load order and embedded in batches, with retry
// logic using exponential backoff and progress reporting. The cache can be
// purged first so vectors from the previous model do not linger.
package reembed
