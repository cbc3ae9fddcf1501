// Package session owns the single persisted session record: serialization,
// schema validation, expiry, and refresh-lead-time checks.
//
// # Single record
//
// Exactly one [Record] lives in storage at a time. Save overwrites the prior
// record in one write; Load validates the stored payload and treats anything
// malformed as absent, clearing it as a side effect so a tampered record can
// never be re-read.
//
// # Architecture boundaries
//
// This package owns the [Store] (persistence) and the [Record] model. It does
// NOT talk to the network or decide when a refresh request is actually
// issued — those responsibilities belong to the Service.
package session
