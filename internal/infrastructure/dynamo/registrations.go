package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/thelyst/internal/domain"
)

// PendingRegistrationRepo holds sign-up forms awaiting code confirmation.
// PK: correlation_id. expires_at is the table TTL attribute.
type PendingRegistrationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPendingRegistrationRepo(client *dynamodb.Client, tableName string) *PendingRegistrationRepo {
	return &PendingRegistrationRepo{client: client, tableName: tableName}
}

func (r *PendingRegistrationRepo) Put(ctx context.Context, p *domain.PendingRegistration) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storageErr("put pending registration", err)
	}
	return nil
}

func (r *PendingRegistrationRepo) Get(ctx context.Context, correlationID string) (*domain.PendingRegistration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("correlation_id", correlationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("get pending registration", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	var p domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending registration: %w", err)
	}
	return &p, nil
}

// Transition moves the registration from one state to the next, failing with
// ErrConflict when another request already moved it.
func (r *PendingRegistrationRepo) Transition(ctx context.Context, correlationID string, from, to domain.RegistrationState) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("correlation_id", correlationID),
		UpdateExpression:    aws.String("SET #state = :to"),
		ConditionExpression: aws.String("#state = :from"),
		ExpressionAttributeNames: map[string]string{
			"#state": fieldState,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":to":   &types.AttributeValueMemberS{Value: string(to)},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("registration not in state %s: %w", from, domain.ErrConflict)
	}
	if err != nil {
		return storageErr("transition pending registration", err)
	}
	return nil
}

func (r *PendingRegistrationRepo) Delete(ctx context.Context, correlationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("correlation_id", correlationID),
	})
	if err != nil {
		return storageErr("delete pending registration", err)
	}
	return nil
}
