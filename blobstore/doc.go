// Package blobstore provides read access to corpus files in local or
// remote storage and materializes them in a local cache directory.
//
// BlobStore implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a local or mounted directory with mmap-backed blobs
//   - MemoryStore: in-memory
//   - s3.Store: Amazon S3 with range reads and managed downloads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Fetching
//
// Fetcher resolves a resource name to a file under a cache directory. The
// first request downloads the blob through a temporary file that is renamed
// into place once complete; later requests reuse the file:
//
//	f := blobstore.NewFetcher(store, "/var/cache/annbench")
//	path, err := f.Locate(ctx, "sift/sift_base.fvecs")
package blobstore
