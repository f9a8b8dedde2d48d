// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// MinIO Go client and also works with other S3-compatible services such as
// Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.Dial("localhost:9000", "minioadmin", "minioadmin", false, "my-bucket", "blueprints/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng := probecarto.New(store)
//
// # Features
//
//   - Ranged reads
//   - Streaming uploads
//   - Air-gap friendly (no AWS dependencies required)
package minio
