// Package dynamostore provides a DynamoDB store backend.
//
// Records are marshalled with attributevalue, so model structs carry
// `dynamodbav` tags and must store their id under the "id" attribute.
// Secondary indexes are global secondary indexes whose partition key is a
// synthetic string attribute (see [IndexAttr]) holding a sharded value, so
// null index values (root nodes) remain queryable.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/canopy/internal/shard"
	"github.com/jacentio/canopy/store"
)

// KeyAttr is the partition key attribute of every table.
const KeyAttr = "id"

// MaxBatchSize is the largest batch TransactWriteItems accepts.
const MaxBatchSize = 100

// API is the subset of the DynamoDB client used by the backend.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Backend stores one collection in one DynamoDB table.
type Backend[T store.Record] struct {
	client    API
	schema    store.Schema
	table     string
	numShards int
}

// New creates a new Backend for schema.
func New[T store.Record](client API, schema store.Schema, cfg store.Config) *Backend[T] {
	cfg.Validate()
	return &Backend[T]{
		client:    client,
		schema:    schema,
		table:     cfg.TableName(schema),
		numShards: cfg.NumShards,
	}
}

// IndexAttr returns the synthetic attribute holding the index partition key.
func IndexAttr(idx store.Index) string {
	return "gsi_" + idx.Attr
}

// partitionValue maps an index key to the stored partition value.
func partitionValue(key store.IndexKey) string {
	if !key.Valid {
		return shard.NullValue
	}
	return key.Value
}

func (b *Backend[T]) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttr: &types.AttributeValueMemberS{Value: id},
	}
}

// marshal converts a record to an item, adding one index attribute per
// declared index.
func (b *Backend[T]) marshal(rec T) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", rec.RecordID(), err)
	}
	item[KeyAttr] = &types.AttributeValueMemberS{Value: rec.RecordID()}

	indexed, _ := any(rec).(store.Indexed)
	for _, idx := range b.schema.Indexes {
		key := store.NullKey
		if indexed != nil {
			key = indexed.IndexValue(idx.Name)
		}
		item[IndexAttr(idx)] = &types.AttributeValueMemberS{
			Value: shard.IndexPK(partitionValue(key), rec.RecordID(), b.numShards),
		}
	}
	return item, nil
}

func (b *Backend[T]) unmarshal(item map[string]types.AttributeValue) (T, error) {
	var rec T
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal: %w", err)
	}
	return rec, nil
}

func (b *Backend[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            b.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, false, err
	}
	if result.Item == nil {
		return zero, false, nil
	}
	rec, err := b.unmarshal(result.Item)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

func (b *Backend[T]) GetAll(ctx context.Context) ([]T, error) {
	var recs []T
	paginator := dynamodb.NewScanPaginator(b.client, &dynamodb.ScanInput{
		TableName:      aws.String(b.table),
		ConsistentRead: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			rec, err := b.unmarshal(item)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (b *Backend[T]) GetAllByIndex(ctx context.Context, index string, key store.IndexKey) ([]T, error) {
	idx, ok := b.schema.Index(index)
	if !ok {
		return nil, store.ErrUnknownIndex
	}
	pks := shard.PartitionKeys(partitionValue(key), b.numShards)

	// Fast path for single shard (default)
	if len(pks) == 1 {
		return b.queryPartition(ctx, idx, pks[0])
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []T
	var wg sync.WaitGroup
	errs := make(chan error, len(pks))

	for _, pk := range pks {
		wg.Add(1)
		go func(pk string) {
			defer wg.Done()

			recs, err := b.queryPartition(ctx, idx, pk)
			if err != nil {
				errs <- fmt.Errorf("partition %s: %w", pk, err)
				return
			}

			mu.Lock()
			all = append(all, recs...)
			mu.Unlock()
		}(pk)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return all, nil
}

// queryPartition reads every record in one index partition.
func (b *Backend[T]) queryPartition(ctx context.Context, idx store.Index, pk string) ([]T, error) {
	var recs []T
	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:              aws.String(b.table),
		IndexName:              aws.String(idx.Name),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": IndexAttr(idx),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			rec, err := b.unmarshal(item)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (b *Backend[T]) Add(ctx context.Context, rec T) error {
	item, err := b.marshal(rec)
	if err != nil {
		return err
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": KeyAttr,
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return store.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (b *Backend[T]) Put(ctx context.Context, rec T) error {
	item, err := b.marshal(rec)
	if err != nil {
		return err
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      item,
	})
	return err
}

func (b *Backend[T]) Delete(ctx context.Context, id string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key:       b.key(id),
	})
	return err
}

// PutBatch writes recs in a single TransactWriteItems call so that either
// all of them or none become visible.
func (b *Backend[T]) PutBatch(ctx context.Context, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	if len(recs) > MaxBatchSize {
		return fmt.Errorf("%w: %d records (max %d)", store.ErrBatchTooLarge, len(recs), MaxBatchSize)
	}

	items := make([]types.TransactWriteItem, 0, len(recs))
	for _, rec := range recs {
		item, err := b.marshal(rec)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(b.table),
				Item:      item,
			},
		})
	}

	_, err := b.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}
