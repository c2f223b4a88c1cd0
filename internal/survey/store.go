// Package survey reads historical interaction records from DynamoDB and
// aggregates chatbot survey answers into percentage distributions.
package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

// Questions lists the survey question attributes in display order.
var Questions = []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6"}

// dynamoAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamoAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Record is one historical interaction row. ChatBot may be stored as a
// boolean or a string in the table, so both are preserved.
type Record struct {
	InitiationTimestamp string
	ChannelType         string
	ChatBotBool         bool
	ChatBotString       string
	Answers             map[string]string
}

// ChatBotUsed reports whether the chatbot flag is boolean true or the
// case-insensitive string "true".
func (r Record) ChatBotUsed() bool {
	if r.ChatBotBool {
		return true
	}
	return strings.EqualFold(r.ChatBotString, "true")
}

// IsChat reports whether the record's channel type is chat, case-insensitively.
func (r Record) IsChat() bool {
	return strings.EqualFold(r.ChannelType, "CHAT")
}

// Store reads interaction records from a DynamoDB table.
type Store struct {
	logger    *logging.Logger
	api       dynamoAPI
	tableName string
}

// NewStore creates a Store over the named table.
func NewStore(logger *logging.Logger, api dynamoAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("survey: api must not be nil")
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, errors.New("survey: table name must not be empty")
	}
	return &Store{logger: logger, api: api, tableName: tableName}, nil
}

// RecordsBetween scans all records with InitiationTimestamp in
// [start, end), following pagination until the result set is complete.
func (s *Store) RecordsBetween(ctx context.Context, start, end string) ([]Record, error) {
	in := &dynamodb.ScanInput{
		TableName:            aws.String(s.tableName),
		FilterExpression:     aws.String("InitiationTimestamp BETWEEN :start AND :end"),
		ProjectionExpression: aws.String("InitiationTimestamp, ChannelType, ChatBot, Q1, Q2, Q3, Q4, Q5, Q6"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":start": &types.AttributeValueMemberS{Value: start},
			":end":   &types.AttributeValueMemberS{Value: end},
		},
	}

	var records []Record
	for {
		out, err := s.api.Scan(ctx, in)
		if err != nil {
			return nil, faults.Backend(fmt.Errorf("survey: scan %s: %w", s.tableName, err))
		}
		for _, item := range out.Items {
			records = append(records, itemToRecord(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	s.logger.Debugf("Scanned %d records between %s and %s", len(records), start, end)
	return records, nil
}

// itemToRecord converts a DynamoDB attribute map to a Record.
func itemToRecord(item map[string]types.AttributeValue) Record {
	rec := Record{
		InitiationTimestamp: strAttr(item, "InitiationTimestamp"),
		ChannelType:         strAttr(item, "ChannelType"),
		Answers:             make(map[string]string),
	}

	switch v := item["ChatBot"].(type) {
	case *types.AttributeValueMemberBOOL:
		rec.ChatBotBool = v.Value
	case *types.AttributeValueMemberS:
		rec.ChatBotString = v.Value
	}

	for _, q := range Questions {
		if answer := strAttr(item, q); answer != "" {
			rec.Answers[q] = answer
		}
	}
	return rec
}

// strAttr reads a string-valued attribute, accepting number attributes as
// their literal representation.
func strAttr(item map[string]types.AttributeValue, key string) string {
	switch v := item[key].(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}
