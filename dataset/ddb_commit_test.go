package dataset

import (
	"context"
	"sort"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// fakeDDB implements DDBClient in memory with the same conditional-put
// semantics as DynamoDB.
type fakeDDB struct {
	items map[string]map[uint64]string // uri -> version -> manifest path
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[uint64]string)}
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	uri := params.Item["dataset_uri"].(*types.AttributeValueMemberS).Value
	version, err := strconv.ParseUint(params.Item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	if f.items[uri] == nil {
		f.items[uri] = make(map[uint64]string)
	}
	if _, exists := f.items[uri][version]; exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[uri][version] = params.Item["manifest_path"].(*types.AttributeValueMemberS).Value
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	versions := make([]uint64, 0, len(f.items[uri]))
	for v := range f.items[uri] {
		versions = append(versions, v)
	}
	desc := params.ScanIndexForward != nil && !*params.ScanIndexForward
	sort.Slice(versions, func(i, j int) bool {
		if desc {
			return versions[i] > versions[j]
		}
		return versions[i] < versions[j]
	})
	if params.Limit != nil && len(versions) > int(*params.Limit) {
		versions = versions[:*params.Limit]
	}

	out := &dynamodb.QueryOutput{}
	for _, v := range versions {
		out.Items = append(out.Items, map[string]types.AttributeValue{
			"dataset_uri":   &types.AttributeValueMemberS{Value: uri},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(v, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: f.items[uri][v]},
		})
	}
	return out, nil
}

func (f *fakeDDB) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	uri := params.Key["dataset_uri"].(*types.AttributeValueMemberS).Value
	version, err := strconv.ParseUint(params.Key["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	delete(f.items[uri], version)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDDBCommitStore(t *testing.T) {
	ctx := context.Background()
	commits := NewDDBCommitStore(newFakeDDB(), "vectab-commits")
	uri := "s3://bucket/items.vectab"

	version, _, err := commits.Latest(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(0), version)

	require.NoError(t, commits.Commit(ctx, uri, 1, "manifest-1"))
	require.NoError(t, commits.Commit(ctx, uri, 2, "manifest-2"))

	// Conditional put makes the second writer of a version lose.
	err = commits.Commit(ctx, uri, 2, "manifest-2b")
	require.ErrorIs(t, err, ErrCommitConflict)

	version, path, err := commits.Latest(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)
	require.Equal(t, "manifest-2", path)

	require.NoError(t, commits.Reset(ctx, uri))

	version, _, err = commits.Latest(ctx, uri)
	require.NoError(t, err)
	require.Equal(t, uint64(0), version)
}
