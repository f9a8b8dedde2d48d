package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientOptions configures NewClients.
type ClientOptions struct {
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for LocalStack.
	Endpoint string
	// DynamoDBEndpoint overrides the DynamoDB endpoint.
	DynamoDBEndpoint string
	// PathStyle forces path-style bucket addressing.
	PathStyle bool
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithRegion sets the AWS region.
func WithRegion(region string) ClientOption {
	return func(o *ClientOptions) { o.Region = region }
}

// WithEndpoint overrides the S3 endpoint and enables path-style addressing.
func WithEndpoint(endpoint string) ClientOption {
	return func(o *ClientOptions) {
		o.Endpoint = endpoint
		o.PathStyle = true
	}
}

// WithDynamoDBEndpoint overrides the DynamoDB endpoint.
func WithDynamoDBEndpoint(endpoint string) ClientOption {
	return func(o *ClientOptions) { o.DynamoDBEndpoint = endpoint }
}

// NewClients loads the default AWS configuration (environment, shared
// config, instance role) and returns S3 and DynamoDB clients.
func NewClients(ctx context.Context, opts ...ClientOption) (*s3.Client, *dynamodb.Client, error) {
	var o ClientOptions
	for _, fn := range opts {
		fn(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, nil, err
	}

	s3c := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.PathStyle
	})
	ddb := dynamodb.NewFromConfig(cfg, func(do *dynamodb.Options) {
		if o.DynamoDBEndpoint != "" {
			do.BaseEndpoint = aws.String(o.DynamoDBEndpoint)
		}
	})
	return s3c, ddb, nil
}
