package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap"

	"ollama-chatbot/pkg/logger"
	"ollama-chatbot/pkg/metrics"
)

const (
	DefaultLogGroup  = "/ai-chatbot/logs"
	DefaultLogStream = "chatbot-stream"
)

// logsAPI is the minimal CloudWatch Logs interface required by Logger.
// *cloudwatchlogs.Client satisfies it.
type logsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Logger appends activity lines to one fixed log group/stream.
//
// The stream's sequence token is process-wide state: every append presents
// the current token and adopts the one returned. mu serialises the whole
// read-append-update cycle so concurrent requests never present a stale token.
type Logger struct {
	api    logsAPI
	group  string
	stream string
	log    *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	cursor *string
}

// New creates a Logger for group/stream. Empty names fall back to the defaults.
func New(api logsAPI, group, stream string, log *zap.Logger) (*Logger, error) {
	if api == nil {
		return nil, errors.New("cloudwatch: api must not be nil")
	}
	group = strings.TrimSpace(group)
	if group == "" {
		group = DefaultLogGroup
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultLogStream
	}
	return &Logger{
		api:    api,
		group:  group,
		stream: stream,
		log:    logger.OrNop(log),
		now:    time.Now,
	}, nil
}

// Setup creates the log group and stream. Either already existing is success.
func (l *Logger) Setup(ctx context.Context) error {
	_, err := l.api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(l.group),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("cloudwatch: create log group %q: %w", l.group, err)
	}

	_, err = l.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(l.group),
		LogStreamName: aws.String(l.stream),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("cloudwatch: create log stream %q: %w", l.stream, err)
	}
	return nil
}

// Record appends message as a single event. Failures are logged locally and
// never returned; the cursor only moves on success.
func (l *Logger) Record(ctx context.Context, message string) {
	if err := l.append(ctx, message); err != nil {
		metrics.RecordSideEffectFailure("activity_log")
		l.log.Warn("cloudwatch logging error",
			zap.String("log_group", l.group),
			zap.String("log_stream", l.stream),
			zap.Error(err),
		)
	}
}

func (l *Logger) append(ctx context.Context, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	in := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(l.group),
		LogStreamName: aws.String(l.stream),
		LogEvents: []types.InputLogEvent{{
			Timestamp: aws.Int64(l.now().UnixMilli()),
			Message:   aws.String(message),
		}},
		SequenceToken: l.cursor,
	}
	out, err := l.api.PutLogEvents(ctx, in)
	if err != nil {
		return fmt.Errorf("cloudwatch: put log events: %w", err)
	}
	if out != nil && out.NextSequenceToken != nil {
		l.cursor = aws.String(*out.NextSequenceToken)
	}
	return nil
}

// Cursor returns the current sequence token, or "" before the first append.
func (l *Logger) Cursor() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return aws.ToString(l.cursor)
}

func alreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}

// Nop discards every record. Used when CloudWatch is disabled.
type Nop struct{}

func (Nop) Record(context.Context, string) {}
