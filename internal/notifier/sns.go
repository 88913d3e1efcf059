package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

var ErrNoTopic = errors.New("no SNS topic ARN configured")

// Publisher is the subset of the SNS client used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes reminders to a topic, typically fanned out to SMS or email.
type SNS struct {
	client   Publisher
	topicARN string
}

// NewSNS loads the default AWS config chain for region.
func NewSNS(ctx context.Context, topicARN, region string) (*SNS, error) {
	if region == "" {
		region = constants.DefaultAWSRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSNSWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSWithClient(client Publisher, topicARN string) *SNS {
	return &SNS{client: client, topicARN: topicARN}
}

func (s *SNS) Name() string { return constants.NotifierSNS }

func (s *SNS) Deliver(ctx context.Context, r models.PendingReminder) error {
	if s.topicARN == "" {
		return ErrNoTopic
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(constants.ReminderTitle),
		Message:  aws.String(message(r)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"period": {DataType: aws.String("String"), StringValue: aws.String(string(r.Reminder.Period))},
			"day":    {DataType: aws.String("String"), StringValue: aws.String(r.Reminder.DayKey)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish reminder %s: %w", r.Identifier, err)
	}
	return nil
}

// Permission is authorized once a topic is configured; subscription
// confirmation happens out of band.
func (s *SNS) Permission(ctx context.Context) models.PermissionStatus {
	if s.topicARN == "" {
		return models.PermissionNotDetermined
	}
	return models.PermissionAuthorized
}

func (s *SNS) RequestPermission(ctx context.Context) (bool, error) {
	if s.topicARN == "" {
		return false, ErrNoTopic
	}
	return true, nil
}
