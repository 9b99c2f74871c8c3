package dynamostore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/store"
	"github.com/jacentio/canopy/store/dynamostore"
	"github.com/jacentio/canopy/store/storetest"
)

// --- Fake DynamoDB ---

type item = map[string]types.AttributeValue

// fakeDynamo keeps tables in memory and understands exactly the requests
// the backend issues.
type fakeDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]item
	queries []string
	calls   map[string]int

	createErr error
	status    types.TableStatus

	// transactErr fails every transaction before anything is applied.
	transactErr error
	// laggingIndex makes every GSI query return nothing.
	laggingIndex bool
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: make(map[string]map[string]item),
		calls:  make(map[string]int),
		status: types.TableStatusActive,
	}
}

func (f *fakeDynamo) table(name *string) map[string]item {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		t = make(map[string]item)
		f.tables[aws.ToString(name)] = t
	}
	return t
}

func keyOf(it item) string {
	return it[dynamostore.KeyAttr].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetItem"]++
	return &dynamodb.GetItemOutput{Item: f.table(in.TableName)[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PutItem"]++
	t := f.table(in.TableName)
	id := keyOf(in.Item)
	if in.ConditionExpression != nil {
		if _, exists := t[id]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	}
	t[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteItem"]++
	delete(f.table(in.TableName), keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Query"]++
	attr := in.ExpressionAttributeNames["#pk"]
	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	f.queries = append(f.queries, pk)
	if f.laggingIndex {
		return &dynamodb.QueryOutput{}, nil
	}

	var out []item
	for _, it := range f.table(in.TableName) {
		if v, ok := it[attr].(*types.AttributeValueMemberS); ok && v.Value == pk {
			out = append(out, it)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Scan"]++
	var out []item
	for _, it := range f.table(in.TableName) {
		out = append(out, it)
	}
	return &dynamodb.ScanOutput{Items: out}, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["TransactWriteItems"]++
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	seen := make(map[string]bool)
	for _, ti := range in.TransactItems {
		id := keyOf(ti.Put.Item)
		if seen[id] {
			return nil, errors.New("ValidationException: transaction contains multiple operations on one item")
		}
		seen[id] = true
	}
	for _, ti := range in.TransactItems {
		f.table(ti.Put.TableName)[keyOf(ti.Put.Item)] = ti.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateTable"]++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.table(in.TableName)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DescribeTable"]++
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName, TableStatus: f.status},
	}, nil
}

func (f *fakeDynamo) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeDynamo) stored(table, id string) item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][id]
}

func newBackend(f *fakeDynamo, shards int) *dynamostore.Backend[storetest.Item] {
	cfg := store.DefaultConfig()
	cfg.Driver = store.DriverDynamoDB
	cfg.NumShards = shards
	return dynamostore.New[storetest.Item](f, storetest.Schema, cfg)
}

// --- Contract ---

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend[storetest.Item] {
		return newBackend(newFakeDynamo(), 1)
	})
}

func TestContract_Sharded(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend[storetest.Item] {
		return newBackend(newFakeDynamo(), 4)
	})
}

// --- Item Layout ---

func TestIndexAttributes(t *testing.T) {
	ctx := context.Background()
	f := newFakeDynamo()
	b := newBackend(f, 1)

	parent := "r1"
	b.Put(ctx, storetest.Item{ID: "root", Rank: 2})
	b.Put(ctx, storetest.Item{ID: "child", ParentID: &parent, Rank: 0})

	tests := []struct {
		id   string
		attr string
		want string
	}{
		{id: "root", attr: "gsi_parent_id", want: "#null#00"},
		{id: "root", attr: "gsi_rank", want: "2#00"},
		{id: "child", attr: "gsi_parent_id", want: "r1#00"},
		{id: "child", attr: "gsi_rank", want: "0#00"},
	}

	for _, tt := range tests {
		t.Run(tt.id+"."+tt.attr, func(t *testing.T) {
			it := f.stored("items", tt.id)
			v, ok := it[tt.attr].(*types.AttributeValueMemberS)
			if !ok {
				t.Fatalf("expected string attribute %s, got %T", tt.attr, it[tt.attr])
			}
			if v.Value != tt.want {
				t.Errorf("expected %q, got %q", tt.want, v.Value)
			}
		})
	}

	if _, ok := f.stored("items", "root")["parent_id"]; ok {
		t.Error("null parent must be omitted from the item")
	}
}

func TestIndexAttr(t *testing.T) {
	if got := dynamostore.IndexAttr(store.Index{Name: "parentId", Attr: "parent_id"}); got != "gsi_parent_id" {
		t.Errorf("expected gsi_parent_id, got %q", got)
	}
}

func TestGetAllByIndex_FansOut(t *testing.T) {
	ctx := context.Background()
	f := newFakeDynamo()
	b := newBackend(f, 4)

	for i := 0; i < 12; i++ {
		b.Put(ctx, storetest.Item{ID: fmt.Sprintf("n%d", i)})
	}

	got, err := b.GetAllByIndex(ctx, "parent", store.NullKey)
	if err != nil {
		t.Fatalf("GetAllByIndex: %v", err)
	}
	if len(got) != 12 {
		t.Errorf("expected 12 roots, got %d", len(got))
	}
	if f.count("Query") != 4 {
		t.Errorf("expected one query per shard, got %d", f.count("Query"))
	}
}

func TestPutBatch_TooLarge(t *testing.T) {
	f := newFakeDynamo()
	b := newBackend(f, 1)

	batch := make([]storetest.Item, dynamostore.MaxBatchSize+1)
	for i := range batch {
		batch[i] = storetest.Item{ID: fmt.Sprintf("n%d", i)}
	}

	err := b.PutBatch(context.Background(), batch)
	if !errors.Is(err, store.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if f.count("TransactWriteItems") != 0 {
		t.Error("oversized batch must not reach DynamoDB")
	}
}

func TestPutBatch_SingleTransaction(t *testing.T) {
	f := newFakeDynamo()
	b := newBackend(f, 1)

	err := b.PutBatch(context.Background(), []storetest.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	if f.count("TransactWriteItems") != 1 || f.count("PutItem") != 0 {
		t.Errorf("expected one transaction, got calls %v", f.calls)
	}
}

func TestPutBatch_FailedTransactionAppliesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFakeDynamo()
	b := newBackend(f, 1)
	if err := b.Put(ctx, storetest.Item{ID: "a", Title: "before"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	boom := &types.TransactionCanceledException{Message: aws.String("ConditionalCheckFailed")}
	f.transactErr = boom
	err := b.PutBatch(ctx, []storetest.Item{{ID: "a", Title: "after"}, {ID: "b", Rank: 1}})
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		t.Fatalf("expected TransactionCanceledException, got %v", err)
	}

	all, err := b.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0].Title != "before" {
		t.Errorf("expected only the original a, got %+v", all)
	}
}

// --- Engine on a lagging index ---

func TestEngine_LaggingIndexKeepsOrdersDense(t *testing.T) {
	ctx := context.Background()
	f := newFakeDynamo()
	f.laggingIndex = true

	cfg := store.DefaultConfig()
	cfg.Driver = store.DriverDynamoDB
	backend := dynamostore.New[hierarchy.Organization](f, hierarchy.Schema, cfg)
	nodes := store.NewCollection[hierarchy.Organization](backend, hierarchy.Schema)
	engine := hierarchy.NewEngine(nodes)

	root, err := engine.AddNode(ctx, hierarchy.NodeInput{Name: "Root"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	parent := root.Node.ID
	for _, name := range []string{"A", "B", "C"} {
		if _, err := engine.AddNode(ctx, hierarchy.NodeInput{Name: name, ParentID: &parent}); err != nil {
			t.Fatalf("AddNode(%s): %v", name, err)
		}
	}

	snap, err := engine.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	var got []int
	for _, c := range snap.Children(parent) {
		got = append(got, c.Order)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, got); diff != "" {
		t.Errorf("unexpected sibling orders (-want +got):\n%s", diff)
	}
	if v := snap.Violations(); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}
}

func TestTablePrefix(t *testing.T) {
	f := newFakeDynamo()
	cfg := store.Config{TablePrefix: "dev_"}
	b := dynamostore.New[storetest.Item](f, storetest.Schema, cfg)

	b.Put(context.Background(), storetest.Item{ID: "a"})
	if f.stored("dev_items", "a") == nil {
		t.Error("expected item in dev_items")
	}
}

// --- Tables ---

func TestCreateTableInput(t *testing.T) {
	cfg := store.Config{TablePrefix: "dev_"}
	in := dynamostore.CreateTableInput(storetest.Schema, cfg)

	if aws.ToString(in.TableName) != "dev_items" {
		t.Errorf("expected table dev_items, got %q", aws.ToString(in.TableName))
	}
	if in.BillingMode != types.BillingModePayPerRequest {
		t.Errorf("expected PAY_PER_REQUEST, got %v", in.BillingMode)
	}
	if in.StreamSpecification == nil || in.StreamSpecification.StreamViewType != types.StreamViewTypeNewAndOldImages {
		t.Error("expected NEW_AND_OLD_IMAGES stream")
	}

	var attrs []string
	for _, a := range in.AttributeDefinitions {
		attrs = append(attrs, aws.ToString(a.AttributeName))
	}
	if diff := cmp.Diff([]string{"id", "gsi_parent_id", "gsi_rank"}, attrs); diff != "" {
		t.Errorf("attribute definitions (-want +got):\n%s", diff)
	}

	var gsis []string
	for _, g := range in.GlobalSecondaryIndexes {
		gsis = append(gsis, aws.ToString(g.IndexName)+"="+aws.ToString(g.KeySchema[0].AttributeName))
	}
	if diff := cmp.Diff([]string{"parent=gsi_parent_id", "rank=gsi_rank"}, gsis); diff != "" {
		t.Errorf("indexes (-want +got):\n%s", diff)
	}
}

func TestEnsureTable(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantErr   bool
	}{
		{name: "creates", createErr: nil},
		{name: "already exists", createErr: &types.ResourceInUseException{Message: aws.String("exists")}},
		{name: "other failure", createErr: errors.New("AccessDenied"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeDynamo()
			f.createErr = tt.createErr

			err := dynamostore.EnsureTable(context.Background(), f, storetest.Schema, store.Config{}, 5*time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.wantErr && f.count("DescribeTable") == 0 {
				t.Error("expected EnsureTable to wait for the table")
			}
		})
	}
}
