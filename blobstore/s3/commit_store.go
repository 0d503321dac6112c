package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/veclite/blobstore"
)

// ErrConcurrentModification is returned when a concurrent index commit is
// detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// commitPrefix is where versioned copies of the tracked object live.
const commitPrefix = "commits/"

// DDBClient is the subset of the DynamoDB API the commit store needs.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// CommitStore wraps an object store and uses DynamoDB to commit updates of a
// single tracked object, normally the store index. Plain S3 has no
// compare-and-swap, so two writers saving the index can silently overwrite
// each other; the commit store gives the tracked object a monotonically
// increasing version and rejects the loser with ErrConcurrentModification.
//
// Writes of the tracked object land in S3 under commits/<name>.v<version>
// and become visible once the version is registered in DynamoDB with a
// conditional write. All other objects pass straight through to the wrapped
// store.
//
// Table schema:
//   - Partition key: store_uri (string) - identifies the store
//   - Sort key: version (number) - monotonically increasing version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name veclite-commits \
//	  --attribute-definitions AttributeName=store_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=store_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	base      blobstore.Store
	ddb       DDBClient
	tableName string
	storeURI  string
	tracked   string
}

// NewCommitStore creates a commit store over base. storeURI is the partition
// key identifying this store (e.g. "s3://bucket/prefix"). tracked is the
// object name whose writes are versioned; it defaults to "index.json".
func NewCommitStore(base blobstore.Store, ddb DDBClient, tableName, storeURI, tracked string) *CommitStore {
	if tracked == "" {
		tracked = "index.json"
	}
	return &CommitStore{
		base:      base,
		ddb:       ddb,
		tableName: tableName,
		storeURI:  storeURI,
		tracked:   tracked,
	}
}

// Get reads an object. For the tracked object it resolves the latest
// committed version first.
func (s *CommitStore) Get(ctx context.Context, name string) ([]byte, error) {
	if name != s.tracked {
		return s.base.Get(ctx, name)
	}

	version, objectKey, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return s.base.Get(ctx, objectKey)
}

// Put writes an object. For the tracked object the write is committed via a
// DynamoDB conditional put; a lost race returns ErrConcurrentModification and
// leaves the committed state untouched. The orphaned S3 object from the
// losing writer is harmless and gets removed by Delete.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != s.tracked {
		return s.base.Put(ctx, name, data)
	}

	version, _, err := s.latest(ctx)
	if err != nil {
		return err
	}
	newVersion := version + 1
	objectKey := versionedKey(s.tracked, newVersion)

	if err := s.base.Put(ctx, objectKey, data); err != nil {
		return err
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"store_uri":  &types.AttributeValueMemberS{Value: s.storeURI},
			"version":    &types.AttributeValueMemberN{Value: strconv.FormatUint(newVersion, 10)},
			"object_key": &types.AttributeValueMemberS{Value: objectKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit version %d: %w", newVersion, err)
	}
	return nil
}

// Stat returns the size of an object, resolving the tracked object to its
// latest committed version.
func (s *CommitStore) Stat(ctx context.Context, name string) (int64, error) {
	if name != s.tracked {
		return s.base.Stat(ctx, name)
	}

	version, objectKey, err := s.latest(ctx)
	if err != nil {
		return 0, err
	}
	if version == 0 {
		return 0, blobstore.ErrNotFound
	}
	return s.base.Stat(ctx, objectKey)
}

// Delete removes an object. For the tracked object it removes every committed
// version and its DynamoDB records.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	if name != s.tracked {
		return s.base.Delete(ctx, name)
	}

	paginator := dynamodb.NewQueryPaginator(s.ddb, s.queryInput())
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
			if !ok {
				continue
			}
			if keyAttr, ok := item["object_key"].(*types.AttributeValueMemberS); ok {
				if err := s.base.Delete(ctx, keyAttr.Value); err != nil {
					return err
				}
			}
			_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"store_uri": &types.AttributeValueMemberS{Value: s.storeURI},
					"version":   &types.AttributeValueMemberN{Value: versionAttr.Value},
				},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// List lists objects from the wrapped store, hiding the internal versioned
// copies.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.base.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	filtered := names[:0]
	for _, name := range names {
		if !strings.HasPrefix(name, commitPrefix) {
			filtered = append(filtered, name)
		}
	}
	return filtered, nil
}

func (s *CommitStore) queryInput() *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("store_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.storeURI},
		},
	}
}

// latest returns the newest committed version and its object key, or (0, "")
// when nothing was committed yet.
func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	input := s.queryInput()
	input.ScanIndexForward = aws.Bool(false)
	input.Limit = aws.Int32(1)

	resp, err := s.ddb.Query(ctx, input)
	if err != nil {
		return 0, "", fmt.Errorf("query latest version: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute")
	}
	keyAttr, ok := item["object_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid object_key attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse version: %w", err)
	}
	return version, keyAttr.Value, nil
}

func versionedKey(name string, version uint64) string {
	return fmt.Sprintf("%s%s.v%d", commitPrefix, name, version)
}
