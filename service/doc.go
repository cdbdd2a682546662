// Package service orchestrates the record pipeline: the codecs, the order
// store, the journal and the market-data sinks.
//
// It provides a clean API for placing, filling, cancelling and querying
// orders and for publishing quotes, decoupled from network transports
// like gRPC.
package service
