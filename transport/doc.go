// Package transport speaks the backend authentication contract: login,
// register, refresh, reset-password, and logout requests over HTTP.
//
// The backend is an external collaborator. This package does not retry, does
// not interpret policy, and never leaks raw HTTP failures upward: transport
// problems collapse to [ErrUnavailable] and backend rejections to
// [*APIError] carrying the backend's error code. Mapping those onto the
// user-facing error taxonomy is the Service's job.
package transport
