// Package dynamodb stores cats, accounts and the interaction log in one
// DynamoDB table.
//
// Key layout:
//
//	CAT#<id>       PROFILE                         cat item, GSI1 by owner or adoptable
//	CAT#<id>       INTERACTION#<millis>#<id>       interaction, GSI2 by id
//	USER#<id>      PROFILE                         account item
//	USERNAME#<lc>  USERNAME                        username claim
//	COUNTER#<name> COUNTER                         id sequence
//	LOCK#<res>     LOCK                            lease, see DistributedLock
package dynamodb

import (
	"context"
	"fmt"

	"catnook-backend/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	gsi1Name = "GSI1"
	gsi2Name = "GSI2"
)

// API is the subset of *dynamodb.Client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Store hands out the repositories backed by a single table
type Store struct {
	api       API
	tableName string
	logger    *zap.Logger
}

// NewStore creates a new Store
func NewStore(api API, tableName string, logger *zap.Logger) *Store {
	return &Store{api: api, tableName: tableName, logger: logger}
}

func (s *Store) Cats() ports.CatRepository { return &CatRepository{store: s} }
func (s *Store) Accounts() ports.AccountRepository { return &AccountRepository{store: s} }
func (s *Store) Interactions() ports.InteractionRepository { return &InteractionRepository{store: s} }

// Ping backs the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.tableName, err)
	}
	return nil
}

// nextID bumps the named counter and returns the new value
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	update := expression.Add(expression.Name("Value"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("build counter expression: %w", err)
	}

	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       itemKey(counterPK(name), "COUNTER"),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}

	var counter struct {
		Value int64 `dynamodbav:"Value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return 0, fmt.Errorf("unmarshal counter %s: %w", name, err)
	}
	return counter.Value, nil
}

func (s *Store) getItem(ctx context.Context, pk, sk string, consistent bool) (map[string]types.AttributeValue, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            itemKey(pk, sk),
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, err
	}
	return out.Item, nil
}

// queryAll drains every page of the query
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	input.TableName = aws.String(s.tableName)
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}
