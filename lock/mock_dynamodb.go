package lock

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoDBClient implements DynamoDBAPI for testing. It understands the
// condition expressions DynamoDBLocker sends and nothing else.
type MockDynamoDBClient struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

// NewMockDynamoDBClient creates a new mock DynamoDB client
func NewMockDynamoDBClient() *MockDynamoDBClient {
	return &MockDynamoDBClient{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

// CreateTable mocks the CreateTable operation
func (m *MockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[*params.TableName]; !ok {
		m.tables[*params.TableName] = make(map[string]map[string]types.AttributeValue)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

// DescribeTable mocks the DescribeTable operation
func (m *MockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[*params.TableName]; !ok {
		return nil, &types.ResourceNotFoundException{Message: params.TableName}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

// PutItem mocks a put guarded by the locker's expiry condition
func (m *MockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.tables[*params.TableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: params.TableName}
	}

	key := params.Item["key"].(*types.AttributeValueMemberS).Value
	if existing, ok := items[key]; ok && params.ConditionExpression != nil {
		now := numberValue(params.ExpressionAttributeValues[":now"])
		if numberValue(existing["expires_at"]) >= now {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem mocks a delete guarded by the locker's token condition
func (m *MockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.tables[*params.TableName]
	key := params.Key["key"].(*types.AttributeValueMemberS).Value

	existing, ok := items[key]
	if params.ConditionExpression != nil {
		want := params.ExpressionAttributeValues[":token"].(*types.AttributeValueMemberS).Value
		if !ok || existing["token"].(*types.AttributeValueMemberS).Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	delete(items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Len returns the number of items stored in a table
func (m *MockDynamoDBClient) Len(tableName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[tableName])
}

func numberValue(av types.AttributeValue) int64 {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}
