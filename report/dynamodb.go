package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoDBClient is the subset of the DynamoDB API the sink uses.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBSink writes rows to a DynamoDB table.
//
// Table schema:
//   - Partition key: run_id (string)
//   - Sort key: row_id (string), a random UUID per row
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name annbench-results \
//	  --attribute-definitions AttributeName=run_id,AttributeType=S AttributeName=row_id,AttributeType=S \
//	  --key-schema AttributeName=run_id,KeyType=HASH AttributeName=row_id,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDBSink struct {
	client DynamoDBClient
	table  string
}

// NewDynamoDBSink creates a sink writing to table.
func NewDynamoDBSink(client DynamoDBClient, table string) *DynamoDBSink {
	return &DynamoDBSink{client: client, table: table}
}

// Write implements Sink.
func (s *DynamoDBSink) Write(ctx context.Context, row Row) error {
	params := make(map[string]types.AttributeValue, len(row.Parameters))
	for k, v := range row.Parameters {
		params[k] = &types.AttributeValueMemberS{Value: v}
	}
	metrics := make(map[string]types.AttributeValue, len(row.Metrics))
	for k, v := range row.Metrics {
		metrics[k] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'g', -1, 64)}
	}

	item := map[string]types.AttributeValue{
		"run_id":     &types.AttributeValueMemberS{Value: row.RunID},
		"row_id":     &types.AttributeValueMemberS{Value: uuid.NewString()},
		"created_at": &types.AttributeValueMemberS{Value: row.Time.Format(time.RFC3339Nano)},
		"parameters": &types.AttributeValueMemberM{Value: params},
		"metrics":    &types.AttributeValueMemberM{Value: metrics},
	}
	if label := row.Param(ParamLabel); label != "" {
		item["label"] = &types.AttributeValueMemberS{Value: label}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("report: put row to DynamoDB: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *DynamoDBSink) Close() error { return nil }
