package dataset

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
// Declared as an interface so tests can run against a fake.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DDBCommitStore implements CommitStore on DynamoDB conditional writes.
// Plain S3 has no compare-and-swap, so the version pointer lives in a
// DynamoDB table instead; fragment and manifest objects stay in S3.
//
// Table schema:
//   - Partition key: dataset_uri (string)
//   - Sort key: version (number)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name vectab-commits \
//	  --attribute-definitions AttributeName=dataset_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=dataset_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	client    DDBClient
	tableName string
}

// NewDDBCommitStore creates a DynamoDB-backed commit store.
func NewDDBCommitStore(client DDBClient, tableName string) *DDBCommitStore {
	return &DDBCommitStore{client: client, tableName: tableName}
}

// Latest returns the highest committed version and its manifest path.
func (s *DDBCommitStore) Latest(ctx context.Context, uri string) (uint64, string, error) {
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("dataset_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: uri},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("dataset: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("dataset: malformed version attribute in commit table")
	}
	pathAttr, ok := item["manifest_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("dataset: malformed manifest_path attribute in commit table")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("dataset: parse committed version: %w", err)
	}
	return version, pathAttr.Value, nil
}

// Commit records version -> manifestPath with a conditional put, so the
// first writer of a version wins.
func (s *DDBCommitStore) Commit(ctx context.Context, uri string, version uint64, manifestPath string) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"dataset_uri":   &types.AttributeValueMemberS{Value: uri},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: manifestPath},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s version %d", ErrCommitConflict, uri, version)
		}
		return fmt.Errorf("dataset: commit version: %w", err)
	}
	return nil
}

// Reset removes all commit records for uri.
func (s *DDBCommitStore) Reset(ctx context.Context, uri string) error {
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("dataset_uri = :uri"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uri": &types.AttributeValueMemberS{Value: uri},
			},
		})
		if err != nil {
			return fmt.Errorf("dataset: query commit table: %w", err)
		}
		if len(resp.Items) == 0 {
			return nil
		}
		for _, item := range resp.Items {
			_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"dataset_uri": item["dataset_uri"],
					"version":     item["version"],
				},
			})
			if err != nil {
				return fmt.Errorf("dataset: delete commit record: %w", err)
			}
		}
	}
}
