package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ollama-chatbot/internal/domain"
)

const (
	attrUserID      = "user_id"
	attrTimestamp   = "timestamp"
	attrUserMessage = "user_message"
	attrBotReply    = "bot_reply"

	// HistoryLimit is the number of turns fetched per query.
	HistoryLimit = 10
	// ContextTurns is how many of the fetched turns feed the prompt.
	ContextTurns = 5
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps the chat history table. Turns are append-only.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// QueryRecent returns up to limit of the user's most recent turns, oldest first.
func (c *Client) QueryRecent(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		// Read newest first so LIMIT favors the most recent context.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: QueryRecent query: %w", err)
	}

	turns := make([]domain.ChatTurn, 0, len(out.Items))
	for _, item := range out.Items {
		turn, err := itemToTurn(item)
		if err != nil {
			return nil, fmt.Errorf("repository: QueryRecent unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Put appends a turn. An existing (user_id, timestamp) pair is never overwritten.
func (c *Client) Put(ctx context.Context, turn domain.ChatTurn) error {
	if strings.TrimSpace(turn.UserID) == "" {
		return errors.New("repository: Put: user id is required")
	}
	if turn.Timestamp <= 0 {
		return errors.New("repository: Put: timestamp is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                turnItem(turn),
		ConditionExpression: aws.String("attribute_not_exists(user_id) AND attribute_not_exists(#ts)"),
		// timestamp is a DynamoDB reserved word.
		ExpressionAttributeNames: map[string]string{"#ts": attrTimestamp},
	})
	if err != nil {
		return fmt.Errorf("repository: Put: %w", err)
	}
	return nil
}

// LastN returns the trailing n turns of history.
func LastN(turns []domain.ChatTurn, n int) []domain.ChatTurn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func itemToTurn(item map[string]types.AttributeValue) (domain.ChatTurn, error) {
	userID, err := strAttr(item, attrUserID)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	ts, err := int64Attr(item, attrTimestamp)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	msg, err := strAttr(item, attrUserMessage)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	reply, _ := strAttr(item, attrBotReply) // allow empty

	return domain.ChatTurn{
		UserID:      userID,
		Timestamp:   ts,
		UserMessage: msg,
		BotReply:    reply,
	}, nil
}

func turnItem(turn domain.ChatTurn) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrUserID:      &types.AttributeValueMemberS{Value: turn.UserID},
		attrTimestamp:   &types.AttributeValueMemberN{Value: strconv.FormatInt(turn.Timestamp, 10)},
		attrUserMessage: &types.AttributeValueMemberS{Value: turn.UserMessage},
		attrBotReply:    &types.AttributeValueMemberS{Value: turn.BotReply},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
