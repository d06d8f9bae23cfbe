// Package measurements extracts per-admission clinical measurements from chart and lab
// event logs.
//
// A run has four steps:
//
//  1. LoadDocument parses the extraction document: the record stream location and the
//     items of interest with their output header and merge policy.
//  2. Scan makes one pass over the record stream (plain or gzip CSV, local or s3://),
//     skipping error-flagged rows and grouping observations by admission and item.
//  3. reconcile.Resolve merges multi-valued observations and classifies admissions.
//  4. WriteTable emits the gzip CSV of complete admissions and BuildReport summarizes
//     conflicts and incomplete admissions.
//
// Service ties the steps together and can publish results: the output table is uploaded
// to object storage and the report is saved to the run store, concurrently.
//
// # HTTP
//
//	POST /extract?show_conflicts=true&max_rows=1000   (YAML document body)
//	GET  /runs/:id
//	GET  /health
//
// Malformed documents and record streams without the required columns answer 400.
package measurements
