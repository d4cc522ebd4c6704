// Package source defines how upstream institution data enters the system.
//
// # Adapters
//
// An Adapter fetches one institution's data for a requested category and
// normalizes it into catalog records. Fetch returns a lazy Sequence: nothing
// is requested until the caller ranges over it, the caller may stop early,
// and ranging again restarts from scratch.
//
// Failures are split in two:
//   - *ParseError items mark a single upstream record that could not be
//     normalized. The stream continues.
//   - *FetchError is fatal for the whole fetch and is classified as Timeout,
//     BadResponse or NetworkUnavailable. Only Timeout and NetworkUnavailable
//     are worth retrying.
//
// Drain materializes a sequence into a Batch and converts any fatal error
// into a *FetchError.
//
// # Registry
//
// The Registry maps institution codes to adapters and their static
// configuration. It is assembled once with a RegistryBuilder at startup and
// is immutable afterwards, so it is shared by reference without locking.
//
// # Client
//
// Client is the shared HTTP client for adapters. It paces requests with a
// token bucket (golang.org/x/time/rate) so a single institution is never hit
// faster than its configured interval, decodes gzip and brotli bodies, and
// maps transport and status failures to FetchError kinds.
//
// # Usage
//
//	b := source.NewRegistryBuilder()
//	_ = b.Register(inst, adapter)
//	reg := b.Build()
//
//	adapter, err := reg.Lookup("ualberta")
//	batch, err := source.Drain(ctx, adapter.Fetch(ctx, catalog.CategoryCourse, source.FullHint()))
package source
