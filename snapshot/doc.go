// Package snapshot dumps the order store to a single file holding one
// packed batch of order records, tagged with the journal sequence it
// covers. Journal segments at or below that sequence can then be dropped.
package snapshot
