// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES client used for reminders.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer sends plain text and HTML email through SES.
type Mailer struct {
	client SESService
	from   string
}

func NewMailer(client SESService, from string) *Mailer {
	return &Mailer{client: client, from: from}
}

// NewSESMailer builds a Mailer from the default AWS credential chain.
func NewSESMailer(ctx context.Context, region, from string) (*Mailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewMailer(ses.NewFromConfig(cfg), from), nil
}

// Send delivers one message and returns the SES message id.
func (m *Mailer) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	body := &types.Body{Text: &types.Content{Data: aws.String(text)}}
	if html != "" {
		body.Html = &types.Content{Data: aws.String(html)}
	}

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body:    body,
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
