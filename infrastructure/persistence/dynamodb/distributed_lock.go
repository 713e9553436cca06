package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	api       API
	tableName string
	owner     string
	clock     utils.Clock
	logger    *zap.Logger
}

var _ ports.Locker = (*DistributedLock)(nil)

// LockRecord represents a lock record in DynamoDB
type LockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#<resource>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lease token
	Owner      string `dynamodbav:"Owner"`      // Process holding the lease
	AcquiredAt int64  `dynamodbav:"AcquiredAt"` // Unix millis
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`  // Unix millis, compared on acquire
	TTL        int64  `dynamodbav:"TTL"`        // Unix seconds for DynamoDB TTL
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(api API, tableName, owner string, clock utils.Clock, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		api:       api,
		tableName: tableName,
		owner:     owner,
		clock:     clock,
		logger:    logger,
	}
}

func lockPK(resource string) string { return "LOCK#" + resource }

// TryAcquire takes the lease if the item is absent or expired. It never
// waits; contention is reported as ports.ErrLockHeld.
func (dl *DistributedLock) TryAcquire(ctx context.Context, resource string, ttl time.Duration) (ports.Lock, error) {
	now := dl.clock.Now()
	expiresAt := now.Add(ttl)
	record := LockRecord{
		PK:         lockPK(resource),
		SK:         "LOCK",
		LockID:     uuid.NewString(),
		Owner:      dl.owner,
		AcquiredAt: now.UnixMilli(),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Minute).Unix(),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshal lock: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build lock condition: %w", err)
	}

	_, err = dl.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Failed to acquire lock - already held",
				zap.String("resource", resource),
				zap.String("owner", dl.owner),
			)
			return nil, ports.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	dl.logger.Debug("Lock acquired successfully",
		zap.String("resource", resource),
		zap.String("lockID", record.LockID),
		zap.Duration("ttl", ttl),
	)
	return &Lock{distributedLock: dl, resource: resource, lockID: record.LockID}, nil
}

// releaseLock deletes the lease only if it still carries our token
func (dl *DistributedLock) releaseLock(ctx context.Context, resource, lockID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("LockID").Equal(expression.Value(lockID))).
		Build()
	if err != nil {
		return fmt.Errorf("build release condition: %w", err)
	}

	_, err = dl.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(dl.tableName),
		Key:                       itemKey(lockPK(resource), "LOCK"),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Warn("Lock already released or taken over after expiry",
				zap.String("resource", resource),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	dl.logger.Debug("Lock released successfully",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
	)
	return nil
}

// Lock represents an acquired distributed lock
type Lock struct {
	distributedLock *DistributedLock
	resource        string
	lockID          string
	once            sync.Once
	err             error
}

// Release releases the lock; later calls return the first result
func (l *Lock) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.err = l.distributedLock.releaseLock(ctx, l.resource, l.lockID)
	})
	return l.err
}
