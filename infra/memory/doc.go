// Package memory provides the allocation-free plumbing around encoded
// records: a typed object pool for scratch buffers and a lock-free
// single-producer single-consumer ring whose slots are fixed-size records
// in one contiguous arena.
//
// Neither type copies a record on the hot path. A producer encodes
// straight into a ring slot or pooled buffer and a consumer reads the
// same bytes with the direct accessors.
package memory
