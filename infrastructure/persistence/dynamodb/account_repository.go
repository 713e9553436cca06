package dynamodb

import (
	"context"
	"errors"
	"time"

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

// AccountRepository implements ports.AccountRepository. The balance only
// moves through ADD updates guarded by condition expressions.
type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	id, err := r.store.nextID(ctx, "user")
	if err != nil {
		return pkgerrors.NewDatabaseError("allocate user id", err)
	}
	account.AssignID(valueobjects.UserID(id))
	s := account.Snapshot()

	claim, err := attributevalue.MarshalMap(usernameItem{
		PK:         usernamePK(s.Username),
		SK:         entityUsername,
		EntityType: entityUsername,
		UserID:     id,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal username", err)
	}
	profile, err := attributevalue.MarshalMap(newAccountItem(s))
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal account", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("build account condition", err)
	}

	_, err = r.store.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.store.tableName),
				Item:                     claim,
				ConditionExpression:      expr.Condition(),
				ExpressionAttributeNames: expr.Names(),
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.store.tableName),
				Item:                     profile,
				ConditionExpression:      expr.Condition(),
				ExpressionAttributeNames: expr.Names(),
			}},
		},
	})
	if err != nil {
		if reasons := cancellationReasons(err); len(reasons) > 0 && conditionFailed(reasons[0]) {
			return pkgerrors.NewDomainError(pkgerrors.DomainConflictError, "USERNAME_TAKEN", "Username is already registered").
				WithDetail("username", s.Username)
		}
		return pkgerrors.NewDatabaseError("create account", err)
	}

	r.store.logger.Debug("Account created", zap.Int64("user_id", id), zap.String("username", s.Username))
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Account, error) {
	raw, err := r.store.getItem(ctx, userPK(id), profileSK, true)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get account", err)
	}
	if len(raw) == 0 {
		return nil, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	var item accountItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal account", err)
	}
	return item.toEntity(), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*entities.Account, error) {
	raw, err := r.store.getItem(ctx, usernamePK(username), entityUsername, true)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get username", err)
	}
	if len(raw) == 0 {
		return nil, pkgerrors.ErrUserNotFound.With("username", username)
	}
	var claim usernameItem
	if err := attributevalue.UnmarshalMap(raw, &claim); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal username", err)
	}
	return r.GetByID(ctx, valueobjects.UserID(claim.UserID))
}

func (r *AccountRepository) AdjustYarn(ctx context.Context, id valueobjects.UserID, delta int64, floor *int64) (int64, error) {
	update, err := r.store.yarnUpdate(id, delta, floor)
	if err != nil {
		return 0, err
	}

	out, err := r.store.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           update.TableName,
		Key:                                 update.Key,
		UpdateExpression:                    update.UpdateExpression,
		ConditionExpression:                 update.ConditionExpression,
		ExpressionAttributeNames:            update.ExpressionAttributeNames,
		ExpressionAttributeValues:           update.ExpressionAttributeValues,
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return yarnDebitRejected(id, delta, ccf.Item)
		}
		return 0, pkgerrors.NewDatabaseError("adjust yarn", err)
	}
	return decodeYarn(out.Attributes)
}

// yarnUpdate builds the conditional ADD shared by AdjustYarn and Record.
// yarn + delta >= floor is checked as yarn >= floor - delta.
func (s *Store) yarnUpdate(id valueobjects.UserID, delta int64, floor *int64) (*types.Update, error) {
	cond := expression.AttributeExists(expression.Name("PK"))
	if floor != nil {
		cond = cond.And(expression.Name("Yarn").GreaterThanEqual(expression.Value(*floor - delta)))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("Yarn"), expression.Value(delta))).
		WithCondition(cond).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build yarn update", err)
	}
	return &types.Update{
		TableName:                           aws.String(s.tableName),
		Key:                                 itemKey(userPK(id), profileSK),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

func yarnDebitRejected(id valueobjects.UserID, delta int64, old map[string]types.AttributeValue) (int64, error) {
	if len(old) == 0 {
		return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	balance, err := decodeYarn(old)
	if err != nil {
		return 0, err
	}
	return balance, pkgerrors.ErrInsufficientYarn.With("balance", balance).WithDetail("required", -delta)
}

func decodeYarn(attrs map[string]types.AttributeValue) (int64, error) {
	var v struct {
		Yarn int64 `dynamodbav:"Yarn"`
	}
	if err := attributevalue.UnmarshalMap(attrs, &v); err != nil {
		return 0, pkgerrors.NewDatabaseError("unmarshal yarn", err)
	}
	return v.Yarn, nil
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id valueobjects.UserID, expectedPrevious *time.Time, at time.Time, bonus int64) (int64, error) {
	previous := expression.AttributeNotExists(expression.Name("LastLoginAt"))
	if expectedPrevious != nil {
		previous = expression.Name("LastLoginAt").Equal(expression.Value(toMillis(*expectedPrevious)))
	}
	update := expression.Set(expression.Name("LastLoginAt"), expression.Value(toMillis(at))).
		Add(expression.Name("Yarn"), expression.Value(bonus))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK")).And(previous)).
		Build()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("build login update", err)
	}

	out, err := r.store.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.store.tableName),
		Key:                                 itemKey(userPK(id), profileSK),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
			}
			balance, _ := decodeYarn(ccf.Item)
			return balance, pkgerrors.ErrConcurrentModification.With("userId", int64(id))
		}
		return 0, pkgerrors.NewDatabaseError("record login", err)
	}
	return decodeYarn(out.Attributes)
}

func cancellationReasons(err error) []types.CancellationReason {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return tce.CancellationReasons
	}
	return nil
}

func conditionFailed(reason types.CancellationReason) bool {
	return aws.ToString(reason.Code) == "ConditionalCheckFailed"
}
