package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/hupe1980/probecarto/blobstore"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when another writer committed the
// same revision first.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

// Catalog implements blobstore.Store with revisioned blobs: every Put writes
// a new immutable object "name@vN-<uuid>" to S3 and commits N in DynamoDB with a
// conditional write. Open always resolves the latest committed revision.
//
// Table schema:
//   - Partition key: blob (string) - the blob name
//   - Sort key: revision (number) - monotonically increasing revision
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name probecarto-catalog \
//	  --attribute-definitions AttributeName=blob,AttributeType=S AttributeName=revision,AttributeType=N \
//	  --key-schema AttributeName=blob,KeyType=HASH AttributeName=revision,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	store     *Store
	ddb       DDBClient
	tableName string
}

var _ blobstore.Store = (*Catalog)(nil)

// Revision is one committed version of a blob.
type Revision struct {
	Number uint64
	Key    string
}

// NewCatalog creates a catalog over store using the DynamoDB table tableName.
func NewCatalog(store *Store, ddb DDBClient, tableName string) *Catalog {
	return &Catalog{store: store, ddb: ddb, tableName: tableName}
}

// revisionKey names the object of a revision. The random suffix keeps
// racing writers from overwriting each other's objects.
func revisionKey(name string, rev uint64) string {
	return name + "@v" + strconv.FormatUint(rev, 10) + "-" + uuid.NewString()
}

// splitRevisionKey returns the blob name of an object written by Commit.
func splitRevisionKey(key string) (string, bool) {
	i := strings.LastIndex(key, "@v")
	if i < 0 {
		return "", false
	}
	num, _, ok := strings.Cut(key[i+2:], "-")
	if !ok {
		return "", false
	}
	if _, err := strconv.ParseUint(num, 10, 64); err != nil {
		return "", false
	}
	return key[:i], true
}

// Open opens the latest revision of name.
func (c *Catalog) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	rev, err := c.Latest(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.store.Open(ctx, rev.Key)
}

// OpenRevision opens a specific revision of name.
func (c *Catalog) OpenRevision(ctx context.Context, name string, number uint64) (blobstore.Blob, error) {
	revs, err := c.Revisions(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, rev := range revs {
		if rev.Number == number {
			return c.store.Open(ctx, rev.Key)
		}
	}
	return nil, blobstore.ErrNotFound
}

// Put writes data as the next revision of name.
func (c *Catalog) Put(ctx context.Context, name string, data []byte) error {
	_, err := c.Commit(ctx, name, data)
	return err
}

// Commit writes data as the next revision of name and returns it.
// The object is removed again if the commit loses a race.
func (c *Catalog) Commit(ctx context.Context, name string, data []byte) (Revision, error) {
	var next uint64 = 1
	cur, err := c.Latest(ctx, name)
	switch {
	case err == nil:
		next = cur.Number + 1
	case !errors.Is(err, blobstore.ErrNotFound):
		return Revision{}, err
	}

	rev := Revision{Number: next, Key: revisionKey(name, next)}
	if err := c.store.Put(ctx, rev.Key, data); err != nil {
		return Revision{}, err
	}

	_, err = c.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"blob":     &types.AttributeValueMemberS{Value: name},
			"revision": &types.AttributeValueMemberN{Value: strconv.FormatUint(rev.Number, 10)},
			"key":      &types.AttributeValueMemberS{Value: rev.Key},
		},
		ConditionExpression:      aws.String("attribute_not_exists(#r)"),
		ExpressionAttributeNames: map[string]string{"#r": "revision"},
	})
	if err != nil {
		_ = c.store.Delete(ctx, rev.Key)
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return Revision{}, ErrConcurrentModification
		}
		return Revision{}, fmt.Errorf("s3: commit revision %d of %q: %w", rev.Number, name, err)
	}
	return rev, nil
}

// Create buffers writes and commits a new revision on Close.
func (c *Catalog) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return &catalogWritableBlob{ctx: ctx, catalog: c, name: name}, nil
}

// Latest returns the newest committed revision of name.
func (c *Catalog) Latest(ctx context.Context, name string) (Revision, error) {
	revs, err := c.query(ctx, name, 1)
	if err != nil {
		return Revision{}, err
	}
	if len(revs) == 0 {
		return Revision{}, blobstore.ErrNotFound
	}
	return revs[0], nil
}

// Revisions returns all committed revisions of name, newest first.
func (c *Catalog) Revisions(ctx context.Context, name string) ([]Revision, error) {
	return c.query(ctx, name, 0)
}

func (c *Catalog) query(ctx context.Context, name string, limit int32) ([]Revision, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(c.tableName),
		KeyConditionExpression:   aws.String("#b = :blob"),
		ExpressionAttributeNames: map[string]string{"#b": "blob"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":blob": &types.AttributeValueMemberS{Value: name},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}

	var revs []Revision
	for {
		resp, err := c.ddb.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("s3: query catalog: %w", err)
		}
		for _, item := range resp.Items {
			rev, err := parseRevision(item)
			if err != nil {
				return nil, err
			}
			revs = append(revs, rev)
		}
		if limit > 0 || len(resp.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
	return revs, nil
}

func parseRevision(item map[string]types.AttributeValue) (Revision, error) {
	n, ok := item["revision"].(*types.AttributeValueMemberN)
	if !ok {
		return Revision{}, errors.New("s3: invalid revision attribute in catalog")
	}
	k, ok := item["key"].(*types.AttributeValueMemberS)
	if !ok {
		return Revision{}, errors.New("s3: invalid key attribute in catalog")
	}
	num, err := strconv.ParseUint(n.Value, 10, 64)
	if err != nil {
		return Revision{}, fmt.Errorf("s3: parse revision: %w", err)
	}
	return Revision{Number: num, Key: k.Value}, nil
}

// Delete removes every revision of name from S3 and the catalog.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	revs, err := c.Revisions(ctx, name)
	if err != nil {
		return err
	}
	for _, rev := range revs {
		if err := c.store.Delete(ctx, rev.Key); err != nil {
			return err
		}
		_, err := c.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]types.AttributeValue{
				"blob":     &types.AttributeValueMemberS{Value: name},
				"revision": &types.AttributeValueMemberN{Value: strconv.FormatUint(rev.Number, 10)},
			},
		})
		if err != nil {
			return fmt.Errorf("s3: delete revision %d of %q: %w", rev.Number, name, err)
		}
	}
	return nil
}

// List returns the distinct blob names with stored revisions.
func (c *Catalog) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(keys))
	var names []string
	for _, k := range keys {
		name, ok := splitRevisionKey(k)
		if !ok {
			continue
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type catalogWritableBlob struct {
	ctx     context.Context
	catalog *Catalog
	name    string
	buf     bytes.Buffer
	closed  bool
}

func (w *catalogWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *catalogWritableBlob) Sync() error { return nil }

func (w *catalogWritableBlob) Close() error {
	if w.closed {
		return io.ErrClosedPipe
	}
	w.closed = true
	return w.catalog.Put(w.ctx, w.name, w.buf.Bytes())
}
