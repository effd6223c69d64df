// Package minio serves benchmark corpora from MinIO or any other
// S3-compatible object store (Ceph, SeaweedFS, Garage) through the MinIO Go
// client, for labs that mirror the public ANN datasets without AWS.
//
//	client, err := minio.Dial("minio.lab:9000", accessKey, secretKey, false)
//	if err != nil { ... }
//	store := minio.NewStore(client, "ann-datasets", "corpora/")
//	path, err := blobstore.NewFetcher(store, cacheDir).Locate(ctx, "sift/sift_base.fvecs")
package minio
