// Package common defines shared sentinel errors used across tarkovsync
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Decoder errors: the obfuscated payload could not be reversed.
	// Non-fatal; callers treat it as "no data available".
	ErrDecode = errors.New("decode failure")

	// Fetcher errors: the remote service returned a non-success status or
	// the request itself failed. Non-fatal at the per-map granularity.
	ErrFetch = errors.New("fetch error")

	// Observer errors: the secondary-source page did not render in time.
	// Non-fatal; the map's verification proceeds with an empty secondary set.
	ErrRenderTimeout = errors.New("render timeout")
)
