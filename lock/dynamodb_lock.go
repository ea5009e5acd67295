package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoDBAPI defines the interface for DynamoDB operations
type DynamoDBAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// lockItem is the stored form of a held lock
type lockItem struct {
	Key       string `dynamodbav:"key"`
	Token     string `dynamodbav:"token"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// DynamoDBLocker implements Locker with conditional writes on a DynamoDB
// table keyed by "key". Items past expires_at may be taken over.
type DynamoDBLocker struct {
	client        DynamoDBAPI
	tableName     string
	ttl           time.Duration
	retryInterval time.Duration
	now           func() time.Time
}

// NewDynamoDBLocker creates a new DynamoDB locker using the default AWS config
func NewDynamoDBLocker(ctx context.Context, tableName string) (*DynamoDBLocker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return NewDynamoDBLockerWithClient(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewDynamoDBLockerWithClient creates a new DynamoDB locker with a custom client
func NewDynamoDBLockerWithClient(client DynamoDBAPI, tableName string) *DynamoDBLocker {
	return &DynamoDBLocker{
		client:        client,
		tableName:     tableName,
		ttl:           defaultTTL,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
}

// Initialize creates the DynamoDB table if it doesn't exist
func (l *DynamoDBLocker) Initialize() error {
	ctx := context.TODO()

	_, err := l.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(l.tableName),
	})
	if err == nil {
		return nil
	}

	_, err = l.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(l.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("error creating lock table %s: %w", l.tableName, err)
	}
	return nil
}

// Acquire writes the lock item unless a live one exists, retrying until ctx
// is done
func (l *DynamoDBLocker) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	for {
		acquired, err := l.tryAcquire(ctx, key, token)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() error {
				return l.release(key, token)
			}, nil
		}
		if err := wait(ctx, l.retryInterval); err != nil {
			return nil, err
		}
	}
}

func (l *DynamoDBLocker) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	now := l.now()
	item, err := attributevalue.MarshalMap(lockItem{
		Key:       key,
		Token:     token,
		ExpiresAt: now.Add(l.ttl).UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("error marshaling lock item: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#key) OR #expires_at < :now"),
		ExpressionAttributeNames: map[string]string{
			"#key":        "key",
			"#expires_at": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err == nil {
		return true, nil
	}

	var conditionErr *types.ConditionalCheckFailedException
	if errors.As(err, &conditionErr) {
		return false, nil
	}
	return false, fmt.Errorf("error acquiring lock %s: %w", key, err)
}

func (l *DynamoDBLocker) release(key, token string) error {
	_, err := l.client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression: aws.String("#token = :token"),
		ExpressionAttributeNames: map[string]string{
			"#token": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err == nil {
		return nil
	}

	var conditionErr *types.ConditionalCheckFailedException
	if errors.As(err, &conditionErr) {
		return ErrLockLost
	}
	return fmt.Errorf("error releasing lock %s: %w", key, err)
}
