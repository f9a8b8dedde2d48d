// Package s3 provides an S3 implementation of the blobstore.Store interface
// and a DynamoDB-backed revision catalog on top of it.
//
// # Usage
//
//	s3c, ddb, err := s3.NewClients(ctx, s3.WithRegion("eu-central-1"))
//	store := s3.NewStore(s3c, "my-bucket", "blueprints/")
//	catalog := s3.NewCatalog(store, ddb, "probecarto-catalog")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for streamed writes
//   - Automatic pagination for listing
//   - Conditional-write revisions for concurrent writers (Catalog)
package s3
