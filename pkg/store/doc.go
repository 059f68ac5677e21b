// Package store keeps a history of instrument readings in a bbolt file.
//
// Each instrument has its own bucket. Keys are the big-endian reading
// time in nanoseconds followed by the command name, so a cursor walks a
// bucket in time order. Values are CBOR-encoded Reading records.
package store
