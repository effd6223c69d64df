// Package s3 serves benchmark corpora from an Amazon S3 bucket.
//
// Stores resolve credentials through the default AWS chain. Ranged GETs back
// the Blob interface, and Store also implements blobstore.Downloader so a
// Fetcher pulls whole base files with the SDK transfer manager's parallel
// part downloads:
//
//	store, err := s3.New(ctx, "ann-datasets",
//	    s3.WithPrefix("nearest-neighbor/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	path, err := blobstore.NewFetcher(store, cacheDir).Locate(ctx, "gist/gist_base.fvecs")
//
// WithEndpoint targets S3-compatible services with path-style addressing.
package s3
