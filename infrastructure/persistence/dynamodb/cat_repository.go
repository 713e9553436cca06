package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CatRepository implements ports.CatRepository
type CatRepository struct {
	store *Store
}

func (r *CatRepository) Create(ctx context.Context, cat *entities.Cat) error {
	id, err := r.store.nextID(ctx, "cat")
	if err != nil {
		return pkgerrors.NewDatabaseError("allocate cat id", err)
	}
	cat.AssignID(valueobjects.CatID(id))

	av, err := attributevalue.MarshalMap(newCatItem(cat.Snapshot()))
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal cat", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("build cat condition", err)
	}

	_, err = r.store.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.store.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("put cat", err)
	}

	r.store.logger.Debug("Cat created", zap.Int64("cat_id", id))
	return nil
}

func (r *CatRepository) GetByID(ctx context.Context, id valueobjects.CatID) (*entities.Cat, error) {
	raw, err := r.store.getItem(ctx, catPK(id), profileSK, true)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get cat", err)
	}
	if len(raw) == 0 {
		return nil, pkgerrors.ErrCatNotFound.With("catId", int64(id))
	}
	var item catItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal cat", err)
	}
	return item.toEntity(), nil
}

func (r *CatRepository) Save(ctx context.Context, cat *entities.Cat, expectedVersion int64) error {
	put, err := r.store.catPut(cat, expectedVersion)
	if err != nil {
		return err
	}

	_, err = r.store.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           put.TableName,
		Item:                                put.Item,
		ConditionExpression:                 put.ConditionExpression,
		ExpressionAttributeNames:            put.ExpressionAttributeNames,
		ExpressionAttributeValues:           put.ExpressionAttributeValues,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return catWriteRejected(cat.ID(), expectedVersion, ccf.Item)
	}
	return pkgerrors.NewDatabaseError("put cat", err)
}

// catPut builds the version-checked write shared by Save and Record
func (s *Store) catPut(cat *entities.Cat, expectedVersion int64) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(newCatItem(cat.Snapshot()))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal cat", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("Version").Equal(expression.Value(expectedVersion))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build cat condition", err)
	}
	return &types.Put{
		TableName:                           aws.String(s.tableName),
		Item:                                av,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

// catWriteRejected explains a failed version check from the old item, if any
func catWriteRejected(id valueobjects.CatID, expectedVersion int64, old map[string]types.AttributeValue) error {
	if len(old) == 0 {
		return pkgerrors.ErrCatNotFound.With("catId", int64(id))
	}
	var current catItem
	if err := attributevalue.UnmarshalMap(old, &current); err != nil {
		return pkgerrors.NewDatabaseError("unmarshal cat", err)
	}
	return pkgerrors.ErrConcurrentModification.
		With("catId", int64(id)).
		WithDetail("expectedVersion", expectedVersion).
		WithDetail("actualVersion", current.Version)
}

func (r *CatRepository) ListAdoptable(ctx context.Context) ([]*entities.Cat, error) {
	return r.listPartition(ctx, adoptablePartition)
}

func (r *CatRepository) ListByOwner(ctx context.Context, owner valueobjects.UserID) ([]*entities.Cat, error) {
	return r.listPartition(ctx, ownerPK(owner))
}

func (r *CatRepository) listPartition(ctx context.Context, partition string) ([]*entities.Cat, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(partition))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build cat query", err)
	}

	items, err := r.store.queryAll(ctx, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError(fmt.Sprintf("query cats %s", partition), err)
	}

	var rows []catItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal cats", err)
	}
	out := make([]*entities.Cat, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
