package sns

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/doc-courier/internal/config"
)

// AlertPublisher pushes operational alerts (mail delivery failures) to an
// SNS topic so on-call hears about a broken SMTP upstream before users do.
type AlertPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewPublisher returns nil when no topic is configured; callers treat a nil
// publisher as alerts-disabled.
func NewPublisher(cfg *config.Config) (AlertPublisher, error) {
	if cfg.SNSAlertTopicARN == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSAlertTopicARN}, nil
}

func (p *publisher) Publish(ctx context.Context, subject, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	return err
}
