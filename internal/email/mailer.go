package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog/log"
)

const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

// Mailer delivers a rendered message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer builds the configured mailer. Unknown providers fall back to noop.
func NewMailer(cfg MailerConfig) (Mailer, error) {
	switch cfg.Provider {
	case ProviderSES:
		if cfg.SES.Region == "" {
			return nil, fmt.Errorf("ses region is required")
		}
		awsCfg := aws.Config{
			Region: cfg.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
			),
		}
		return &sesMailer{
			client:      ses.NewFromConfig(awsCfg),
			fromAddress: cfg.FromAddress,
			fromName:    cfg.FromName,
		}, nil
	case ProviderNoop, "":
		return noopMailer{}, nil
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("Unknown email provider, using noop")
		return noopMailer{}, nil
	}
}

type sesMailer struct {
	client      *ses.Client
	fromAddress string
	fromName    string
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")}
	}
	if text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Msg("Email sent via SES")
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(_ context.Context, to, subject, _, _ string) error {
	log.Debug().Str("to", to).Str("subject", subject).Msg("Email would be sent (noop)")
	return nil
}
