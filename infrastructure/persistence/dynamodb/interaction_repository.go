package dynamodb

import (
	"context"
	"sort"

	"catnook-backend/application/ports"
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

// positions inside the Record transaction
const (
	txCat = iota
	txAccount
	txInteraction
)

// InteractionRepository implements ports.InteractionRepository
type InteractionRepository struct {
	store *Store
}

// Record writes the cat, the debit and the log entry in one transaction
func (r *InteractionRepository) Record(ctx context.Context, entry ports.InteractionEntry) (int64, error) {
	id, err := r.store.nextID(ctx, "interaction")
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("allocate interaction id", err)
	}
	entry.Interaction.AssignID(valueobjects.InteractionID(id))
	in := entry.Interaction.Snapshot()

	catPut, err := r.store.catPut(entry.Cat, entry.ExpectedCatVersion)
	if err != nil {
		return 0, err
	}
	var floor *int64
	if !entry.AllowNegative {
		zero := int64(0)
		floor = &zero
	}
	debit, err := r.store.yarnUpdate(in.UserID, -in.Cost, floor)
	if err != nil {
		return 0, err
	}
	av, err := attributevalue.MarshalMap(newInteractionItem(in))
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("marshal interaction", err)
	}
	notExists, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("build interaction condition", err)
	}

	_, err = r.store.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			txCat:     {Put: catPut},
			txAccount: {Update: debit},
			txInteraction: {Put: &types.Put{
				TableName:                aws.String(r.store.tableName),
				Item:                     av,
				ConditionExpression:      notExists.Condition(),
				ExpressionAttributeNames: notExists.Names(),
			}},
		},
	})
	if err != nil {
		return 0, r.recordRejected(err, entry, in)
	}

	raw, err := r.store.getItem(ctx, userPK(in.UserID), profileSK, true)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("read balance", err)
	}
	balance, err := decodeYarn(raw)
	if err != nil {
		return 0, err
	}

	r.store.logger.Debug("Interaction recorded",
		zap.Int64("interaction_id", id),
		zap.Int64("cat_id", int64(in.CatID)),
		zap.Int64("user_id", int64(in.UserID)),
		zap.Int64("balance", balance),
	)
	return balance, nil
}

// recordRejected maps the failing transaction slot to a domain error
func (r *InteractionRepository) recordRejected(err error, entry ports.InteractionEntry, in entities.InteractionSnapshot) error {
	reasons := cancellationReasons(err)
	for i, reason := range reasons {
		switch aws.ToString(reason.Code) {
		case "", "None":
			continue
		case "ConditionalCheckFailed":
			switch i {
			case txCat:
				return catWriteRejected(in.CatID, entry.ExpectedCatVersion, reason.Item)
			case txAccount:
				_, rejected := yarnDebitRejected(in.UserID, -in.Cost, reason.Item)
				return rejected
			}
		case "TransactionConflict":
			return pkgerrors.ErrConcurrentModification.
				With("catId", int64(in.CatID)).
				WithCause(err)
		}
	}
	if len(reasons) > 0 {
		r.store.logger.Warn("Interaction transaction cancelled", zap.Error(err))
	}
	return pkgerrors.NewDatabaseError("record interaction", err)
}

// LastN walks the cat's partition newest first. Limit applies before the
// user filter, so pages are read until n matches are in hand.
func (r *InteractionRepository) LastN(ctx context.Context, cat valueobjects.CatID, user valueobjects.UserID, n int) ([]*entities.Interaction, error) {
	if n <= 0 {
		return []*entities.Interaction{}, nil
	}
	keyCond := expression.Key("PK").Equal(expression.Value(catPK(cat))).
		And(expression.Key("SK").BeginsWith(interactionSKPrefix))
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(expression.Name("UserID").Equal(expression.Value(int64(user)))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build history query", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.store.api, &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(n)),
		ConsistentRead:            aws.Bool(true),
	})
	var items []map[string]types.AttributeValue
	for len(items) < n && paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query history", err)
		}
		items = append(items, page.Items...)
	}
	if len(items) > n {
		items = items[:n]
	}
	return decodeInteractions(items)
}

// List reads one cat's partition when a cat is given, otherwise the id index
func (r *InteractionRepository) List(ctx context.Context, filter ports.InteractionFilter) ([]*entities.Interaction, error) {
	builder := expression.NewBuilder()
	input := &dynamodb.QueryInput{}
	if filter.CatID != 0 {
		builder = builder.WithKeyCondition(expression.Key("PK").Equal(expression.Value(catPK(filter.CatID))).
			And(expression.Key("SK").BeginsWith(interactionSKPrefix)))
	} else {
		builder = builder.WithKeyCondition(expression.Key("GSI2PK").Equal(expression.Value(interactionPartition)))
		input.IndexName = aws.String(gsi2Name)
	}
	if filter.UserID != 0 {
		builder = builder.WithFilter(expression.Name("UserID").Equal(expression.Value(int64(filter.UserID))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build interaction query", err)
	}
	input.KeyConditionExpression = expr.KeyCondition()
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()

	items, err := r.store.queryAll(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query interactions", err)
	}
	out, err := decodeInteractions(items)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *InteractionRepository) GetByID(ctx context.Context, id valueobjects.InteractionID) (*entities.Interaction, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(interactionPartition)).
		And(expression.Key("GSI2SK").Equal(expression.Value(sortableID(int64(id)))))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build interaction lookup", err)
	}

	out, err := r.store.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tableName),
		IndexName:                 aws.String(gsi2Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get interaction", err)
	}
	if len(out.Items) == 0 {
		return nil, pkgerrors.ErrInteractionNotFound.With("interactionId", int64(id))
	}
	found, err := decodeInteractions(out.Items)
	if err != nil {
		return nil, err
	}
	return found[0], nil
}

func decodeInteractions(items []map[string]types.AttributeValue) ([]*entities.Interaction, error) {
	var rows []interactionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal interactions", err)
	}
	out := make([]*entities.Interaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
