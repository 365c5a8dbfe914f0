// Package core normalizes swim-meet and dryland results and ranks them.
//
// The package holds the pure part of the scorer, independent of any file
// format, database or CLI. It can be used by the ingest service, tools or
// tests without modification.
//
// # Flow
//
// Tabular input (a header row and data rows) goes through:
//
//  1. [IdentifyColumns] classifies each header into a [Role]
//  2. [Extract] turns rows into participants and positive scores, collecting
//     a [RowError] for every skipped row or malformed cell
//  3. Each score gets an [EventDescriptor]; its [EventDescriptor.EventKey]
//     is handed to a [Scorer]
//  4. Results are grouped by display label in an [Output] and ranked
//
// Meet records ([Meet]) skip the first two steps; [ProcessMeet] scores
// each phase of every entry and keeps the best.
//
// # Persistence
//
// When [Options.Sink] is set every result is written through its
// get-or-create methods. The caller wraps a whole file in one transaction.
//
// # Scoring ages and reporting buckets
//
// The point table is chosen by scoring age (see the scoring package). The
// [AgeBucket] from [ReportingBucket] only decides how results are grouped
// and labeled.
package core
