package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelyst/internal/domain"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

func storedOTP(t *testing.T) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(&domain.OTPRecord{
		Email:     "a@b.com",
		Code:      "654321",
		Attempts:  2,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(10 * time.Minute).Unix(),
	})
	require.NoError(t, err)
	return item
}

func TestConsumeInput_ConditionsOnCodeAndIssuance(t *testing.T) {
	in, err := consumeInput("otps", "a@b.com", "654321", issuedAt)
	require.NoError(t, err)

	assert.Equal(t, "otps", aws.ToString(in.TableName))
	assert.Equal(t, strKey(fieldEmail, "a@b.com"), in.Key)
	assert.Equal(t, "#code = :code AND #created = :created", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#code": "code", "#created": "created_at"}, in.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "654321"}, in.ExpressionAttributeValues[":code"])
}

// The condition compares against the stored created_at attribute, so the
// marshalled value must match what Put wrote byte for byte.
func TestConsumeInput_CreatedAtMatchesStoredAttribute(t *testing.T) {
	in, err := consumeInput("otps", "a@b.com", "654321", issuedAt)
	require.NoError(t, err)

	assert.Equal(t, storedOTP(t)[fieldCreatedAt], in.ExpressionAttributeValues[":created"])
}

func TestReserveAttemptInput_CapsAttempts(t *testing.T) {
	in, err := reserveAttemptInput("otps", "a@b.com", issuedAt, 5)
	require.NoError(t, err)

	assert.Equal(t, "ADD #attempts :one", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "#created = :created AND (attribute_not_exists(#attempts) OR #attempts < :max)", aws.ToString(in.ConditionExpression))
	assert.Equal(t, map[string]string{"#attempts": "attempts", "#created": "created_at"}, in.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, in.ExpressionAttributeValues[":one"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "5"}, in.ExpressionAttributeValues[":max"])
	assert.Equal(t, storedOTP(t)[fieldCreatedAt], in.ExpressionAttributeValues[":created"])
	assert.Equal(t, types.ReturnValueUpdatedNew, in.ReturnValues)
	assert.Equal(t, types.ReturnValuesOnConditionCheckFailureAllOld, in.ReturnValuesOnConditionCheckFailure)
}

func TestReserveAttemptInput_NoCap(t *testing.T) {
	in, err := reserveAttemptInput("otps", "a@b.com", issuedAt, 0)
	require.NoError(t, err)

	assert.Equal(t, "#created = :created", aws.ToString(in.ConditionExpression))
	assert.NotContains(t, in.ExpressionAttributeValues, ":max")
}

func TestReserveRejected(t *testing.T) {
	t.Run("record gone", func(t *testing.T) {
		assert.ErrorIs(t, reserveRejected(nil, issuedAt), domain.ErrNotFound)
	})
	t.Run("record replaced", func(t *testing.T) {
		assert.ErrorIs(t, reserveRejected(storedOTP(t), issuedAt.Add(time.Minute)), domain.ErrNotFound)
	})
	t.Run("attempts exhausted", func(t *testing.T) {
		err := reserveRejected(storedOTP(t), issuedAt)
		assert.ErrorIs(t, err, domain.ErrTooManyRequests)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
