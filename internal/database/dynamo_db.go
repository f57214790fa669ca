package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	pkAttr    = "pk"
	skAttr    = "sk"
	indexAttr = "userChecked"
)

// ErrNotFound is returned by Patch when the addressed item does not
// exist. Updating must never silently create a partial record.
var ErrNotFound = errors.New("item not found")

// StorageError wraps any engine or transport failure crossing the
// gateway boundary.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// DynamoDBAPI is the subset of the DynamoDB client the gateway uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Gateway exposes the storage primitives over one DynamoDB table.
// Table and index names are explicit construction-time values, not
// ambient configuration.
type Gateway struct {
	client    DynamoDBAPI
	tableName string
	indexName string
	logger    *zap.Logger
}

func New(client DynamoDBAPI, tableName, indexName string, logger *zap.Logger) *Gateway {
	return &Gateway{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: pk},
		skAttr: &types.AttributeValueMemberS{Value: sk},
	}
}

// Get loads a single item into out. Absence is a normal outcome,
// reported via the boolean, never as an error.
func (g *Gateway) Get(ctx context.Context, pk, sk string, out any) (bool, error) {
	res, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(g.tableName),
		Key:       key(pk, sk),
	})
	if err != nil {
		return false, storageErr("get", err)
	}
	if res.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, storageErr("get: unmarshal", err)
	}
	return true, nil
}

// Put upserts the full item unconditionally. The key attributes are set
// by the gateway so callers never carry them on their models.
func (g *Gateway) Put(ctx context.Context, pk, sk string, item any) error {
	m, err := attributevalue.MarshalMap(item)
	if err != nil {
		return storageErr("put: marshal", err)
	}
	m[pkAttr] = &types.AttributeValueMemberS{Value: pk}
	m[skAttr] = &types.AttributeValueMemberS{Value: sk}

	_, err = g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(g.tableName),
		Item:      m,
	})
	if err != nil {
		return storageErr("put", err)
	}
	return nil
}

// Patch applies only the given fields to an existing item and loads the
// updated item into out. A missing key fails with ErrNotFound instead
// of creating a partial record.
func (g *Gateway) Patch(ctx context.Context, pk, sk string, fields map[string]any, out any) error {
	if len(fields) == 0 {
		return storageErr("patch", errors.New("no fields to update"))
	}

	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	assignments := make([]string, 0, len(fields))
	for name, value := range fields {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return storageErr("patch: marshal", err)
		}
		names["#"+name] = name
		values[":"+name] = av
		assignments = append(assignments, fmt.Sprintf("#%s = :%s", name, name))
	}

	res, err := g.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(g.tableName),
		Key:                       key(pk, sk),
		UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ")),
		ConditionExpression:       aws.String(fmt.Sprintf("attribute_exists(%s)", pkAttr)),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return storageErr("patch", err)
	}
	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return storageErr("patch: unmarshal", err)
		}
	}
	return nil
}

// Delete removes an item. Deleting a missing key succeeds.
func (g *Gateway) Delete(ctx context.Context, pk, sk string) error {
	_, err := g.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(g.tableName),
		Key:       key(pk, sk),
	})
	if err != nil {
		return storageErr("delete", err)
	}
	return nil
}

// QueryPrefix returns every item in the partition whose sort key starts
// with skPrefix, in engine key order, following continuation keys until
// the result set is exhausted.
func (g *Gateway) QueryPrefix(ctx context.Context, pk, skPrefix string, out any) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(g.tableName),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk AND begins_with(%s, :prefix)", pkAttr, skAttr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}
	return g.queryAll(ctx, input, out)
}

// QueryIndexPrefix is QueryPrefix against the secondary index on the
// synthetic owner::checked attribute.
func (g *Gateway) QueryIndexPrefix(ctx context.Context, pk, indexPrefix string, out any) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(g.tableName),
		IndexName:              aws.String(g.indexName),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk AND begins_with(%s, :prefix)", pkAttr, indexAttr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: indexPrefix},
		},
	}
	return g.queryAll(ctx, input, out)
}

func (g *Gateway) queryAll(ctx context.Context, input *dynamodb.QueryInput, out any) error {
	var items []map[string]types.AttributeValue
	for {
		res, err := g.client.Query(ctx, input)
		if err != nil {
			return storageErr("query", err)
		}
		items = append(items, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return storageErr("query: unmarshal", err)
	}
	g.logger.Debug("query complete", zap.Int("items", len(items)))
	return nil
}

// ScanPartition walks the whole partition page by page and materializes
// every item. Expensive; only maintenance paths should use it.
func (g *Gateway) ScanPartition(ctx context.Context, pk string, out any) error {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(g.tableName),
		FilterExpression: aws.String(fmt.Sprintf("%s = :pk", pkAttr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	}
	var items []map[string]types.AttributeValue
	for {
		res, err := g.client.Scan(ctx, input)
		if err != nil {
			return storageErr("scan", err)
		}
		items = append(items, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return storageErr("scan: unmarshal", err)
	}
	return nil
}
