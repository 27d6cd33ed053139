package server

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// Store keeps uploaded stream documents by id. Implementations must be safe
// for concurrent use.
type Store interface {
	Put(ctx context.Context, id string, doc []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

var ErrNotFound = errors.New("score not found")

// MemoryStore is a Store in a map guarded by a mutex.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (m *MemoryStore) Put(_ context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = doc
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// DynamoStore keeps documents in a DynamoDB table with the string partition
// key PK and the document in the binary attribute Doc.
type DynamoStore struct {
	client *dynamodb.DynamoDB
	table  string
}

// NewDynamoStore connects to DynamoDB in region. A non-empty endpoint selects
// a local DynamoDB instead of the AWS one.
func NewDynamoStore(region, table, endpoint string) (*DynamoStore, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &DynamoStore{client: dynamodb.New(sess), table: table}, nil
}

func (d *DynamoStore) key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{"PK": {S: aws.String(id)}}
}

func (d *DynamoStore) Put(ctx context.Context, id string, doc []byte) error {
	item := d.key(id)
	item["Doc"] = &dynamodb.AttributeValue{B: doc}
	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return err
}

func (d *DynamoStore) Get(ctx context.Context, id string) ([]byte, error) {
	res, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       d.key(id),
	})
	if err != nil {
		return nil, err
	}
	doc, ok := res.Item["Doc"]
	if !ok || doc.B == nil {
		return nil, ErrNotFound
	}
	return doc.B, nil
}

func (d *DynamoStore) Delete(ctx context.Context, id string) error {
	res, err := d.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.table),
		Key:          d.key(id),
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if err != nil {
		return err
	}
	if len(res.Attributes) == 0 {
		return ErrNotFound
	}
	return nil
}
