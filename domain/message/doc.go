// Package message defines the plain trading records that the codecs
// encode: market-data quotes and trade prints, orders, and the trades
// reported when an order record is filled.
//
// The single-byte tags are the character codes written on the wire.
package message
