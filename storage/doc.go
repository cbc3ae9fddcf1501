// Package storage defines the durable key-value boundary shared by the
// session, rate-limit, and audit stores.
//
// Each store owns exactly one logical key in the namespace. Backends only
// need Get/Set/Delete with last-write-wins semantics; there is no
// multi-writer contention in the single-session model, so no compare-and-set
// primitive is exposed.
package storage
