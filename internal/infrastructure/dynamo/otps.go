package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/thelyst/internal/domain"
)

// OTPRepo stores the live one-time code per email.
// PK: email. expires_at is the table TTL attribute.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Put upserts the record, replacing any previous code for the same email.
func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storageErr("put otp", err)
	}
	return nil
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.OTPRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("get otp", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var rec domain.OTPRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &rec, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	if err != nil {
		return storageErr("delete otp", err)
	}
	return nil
}

// Consume deletes the record only if it still holds code from the issuance
// stamped createdAt. Exactly one of several concurrent callers succeeds; the
// rest get ErrNotFound.
func (r *OTPRepo) Consume(ctx context.Context, email, code string, createdAt time.Time) error {
	in, err := consumeInput(r.tableName, email, code, createdAt)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteItem(ctx, in)
	if isConditionFailed(err) {
		return fmt.Errorf("otp already consumed or replaced: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("consume otp", err)
	}
	return nil
}

// ReserveAttempt counts one guess against the issuance stamped createdAt
// before the code is compared, and returns the new count. Once limit guesses
// are reserved it fails with ErrTooManyRequests; a missing or replaced record
// fails with ErrNotFound. limit <= 0 disables the cap.
func (r *OTPRepo) ReserveAttempt(ctx context.Context, email string, createdAt time.Time, limit int) (int, error) {
	in, err := reserveAttemptInput(r.tableName, email, createdAt, limit)
	if err != nil {
		return 0, err
	}
	out, err := r.client.UpdateItem(ctx, in)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return 0, reserveRejected(ccf.Item, createdAt)
	}
	if err != nil {
		return 0, storageErr("reserve otp attempt", err)
	}
	n, ok := out.Attributes[fieldAttempts].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts missing from update result")
	}
	return strconv.Atoi(n.Value)
}

func consumeInput(table, email, code string, createdAt time.Time) (*dynamodb.DeleteItemInput, error) {
	created, err := attributevalue.Marshal(createdAt)
	if err != nil {
		return nil, fmt.Errorf("marshal created_at: %w", err)
	}
	return &dynamodb.DeleteItemInput{
		TableName:           aws.String(table),
		Key:                 strKey(fieldEmail, email),
		ConditionExpression: aws.String("#code = :code AND #created = :created"),
		ExpressionAttributeNames: map[string]string{
			"#code":    fieldCode,
			"#created": fieldCreatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code":    &types.AttributeValueMemberS{Value: code},
			":created": created,
		},
	}, nil
}

func reserveAttemptInput(table, email string, createdAt time.Time, limit int) (*dynamodb.UpdateItemInput, error) {
	created, err := attributevalue.Marshal(createdAt)
	if err != nil {
		return nil, fmt.Errorf("marshal created_at: %w", err)
	}
	in := &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("ADD #attempts :one"),
		ConditionExpression: aws.String("#created = :created"),
		ExpressionAttributeNames: map[string]string{
			"#attempts": fieldAttempts,
			"#created":  fieldCreatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":     &types.AttributeValueMemberN{Value: "1"},
			":created": created,
		},
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}
	if limit > 0 {
		in.ConditionExpression = aws.String("#created = :created AND (attribute_not_exists(#attempts) OR #attempts < :max)")
		in.ExpressionAttributeValues[":max"] = &types.AttributeValueMemberN{Value: strconv.Itoa(limit)}
	}
	return in, nil
}

// reserveRejected tells a locked issuance apart from a consumed or replaced
// one using the item returned with the failed condition.
func reserveRejected(item map[string]types.AttributeValue, createdAt time.Time) error {
	if item == nil {
		return fmt.Errorf("otp consumed: %w", domain.ErrNotFound)
	}
	var rec domain.OTPRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return fmt.Errorf("unmarshal otp: %w", err)
	}
	if !rec.CreatedAt.Equal(createdAt) {
		return fmt.Errorf("otp replaced: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("otp attempts exhausted: %w", domain.ErrTooManyRequests)
}
