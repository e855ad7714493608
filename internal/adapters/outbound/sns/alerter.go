// Package sns delivers operator alerts through an AWS SNS topic.
package sns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/archon-research/keeper/internal/pkg/retry"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.Alerter = (*Alerter)(nil)

// SNS limits subjects to 100 characters.
const maxSubjectLen = 100

// SNSPublisher defines the subset of SNS client methods used by Alerter.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Config holds configuration for the SNS alerter.
type Config struct {
	// TopicARN is the alert topic.
	TopicARN string
	// Environment is attached to every alert as a message attribute.
	Environment string
	Retry       retry.Policy
	Logger      *slog.Logger
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		Retry:  retry.Exponential(3, 100*time.Millisecond, 5*time.Second),
		Logger: slog.Default(),
	}
}

// Alerter publishes alerts to SNS.
type Alerter struct {
	client SNSPublisher
	config Config
	logger *slog.Logger
}

// NewAlerter creates a new SNS alerter.
func NewAlerter(client SNSPublisher, config Config) (*Alerter, error) {
	if client == nil {
		return nil, errors.New("sns client is required")
	}
	if config.TopicARN == "" {
		return nil, errors.New("topic ARN is required")
	}

	defaults := ConfigDefaults()
	if config.Retry == (retry.Policy{}) {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Alerter{
		client: client,
		config: config,
		logger: config.Logger.With("component", "sns-alerter"),
	}, nil
}

// Alert publishes message under subject.
func (a *Alerter) Alert(ctx context.Context, subject, message string) error {
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(a.config.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}
	if a.config.Environment != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"environment": {
				DataType:    aws.String("String"),
				StringValue: aws.String(a.config.Environment),
			},
		}
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		a.logger.Warn("publish failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}
	err := retry.DoVoid(ctx, a.config.Retry, isRetryableError, onRetry, func() error {
		_, err := a.client.Publish(ctx, input)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert to SNS: %w", err)
	}

	a.logger.Info("alert published", "subject", subject)
	return nil
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return false
	}
	var authErr *types.AuthorizationErrorException
	if errors.As(err, &authErr) {
		return false
	}
	var invalid *types.InvalidParameterException
	if errors.As(err, &invalid) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "ThrottledException":
			return true
		}
		return apiErr.ErrorFault() != smithy.FaultClient
	}
	return true
}
