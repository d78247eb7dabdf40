// Package training turns the stored catalogue into a labeled dataset.
//
// Requirements are joined to the standard whose identifier prefixes their
// reference ID, then each record's standard label is replaced by a stable
// integer code:
//
//	records, stats := training.Join(standards, requirements)
//	encoded, labels := training.Encode(records)
//
// Preparer runs the whole pass against storage, keeps the label map for
// later runs and can export the result as Parquet.
package training
