package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/blobstore/minio"
	s3store "github.com/hupe1980/probecarto/blobstore/s3"
	"github.com/hupe1980/probecarto/internal/config"
)

// openStore builds the configured blob store, wrapped in the compression
// layer when one is selected.
func openStore(ctx context.Context, cfg config.StoreConfig) (blobstore.Store, error) {
	codec, err := blobstore.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	var store blobstore.Store
	switch strings.ToLower(cfg.Kind) {
	case "local":
		store = blobstore.NewLocalStore(cfg.Root)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "s3":
		var opts []s3store.ClientOption
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		if cfg.CatalogEndpoint != "" {
			opts = append(opts, s3store.WithDynamoDBEndpoint(cfg.CatalogEndpoint))
		}
		s3c, ddb, err := s3store.NewClients(ctx, opts...)
		if err != nil {
			return nil, err
		}
		objects := s3store.NewStore(s3c, cfg.Bucket, cfg.Prefix)
		if cfg.CatalogTable != "" {
			store = s3store.NewCatalog(objects, ddb, cfg.CatalogTable)
		} else {
			store = objects
		}
	case "minio":
		m, err := minio.Dial(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Secure, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		store = m
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if codec != blobstore.CompressionNone {
		store = blobstore.NewCompressed(store, codec, 0)
	}
	return store, nil
}
