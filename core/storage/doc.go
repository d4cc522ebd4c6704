// Package storage provides access to the S3 compatible object store that
// holds fetched catalog snapshots.
//
// It wraps the MinIO Go client behind the Client interface so the archive can
// be tested against core/storage/mocks. Both AWS S3 and self-hosted MinIO are
// supported.
//
// # Operations
//
//   - BucketExists / MakeBucket: bucket bootstrap.
//   - PutObject: snapshot upload.
//   - GetObject: snapshot download as a stream.
//   - ListObjects: snapshot listing by prefix.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "catalog-snapshots")
package storage
