// Package history stores a JSON report for every run.
//
// Reports live in the data directory (by default
// $XDG_DATA_HOME/feedengage/runs) and are named after the run's start
// time, platform and id, so `history show` accepts any unique run id
// prefix. Files are written atomically through a temporary file and a
// rename.
//
// History is write-only from the run's point of view: it is never read
// back into the dedup ledger, and every run starts with an empty ledger.
package history
