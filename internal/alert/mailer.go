package alert

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Mailer notifies an operator about forwarder-level problems, like the
// downstream webhook breaker opening.
type Mailer interface {
	SendDeviceAlert(ctx context.Context, subject, body string) error
}

type SESMailer struct {
	client    *ses.Client
	sender    string
	recipient string
}

func NewSESMailer(client *ses.Client, sender, recipient string) *SESMailer {
	return &SESMailer{client: client, sender: sender, recipient: recipient}
}

func (m *SESMailer) SendDeviceAlert(ctx context.Context, subject, body string) error {
	tracer := otel.Tracer("ses-alert-mailer")
	ctx, span := tracer.Start(ctx, "send_alert", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	input := &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{m.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(fmt.Sprintf("Hello,\n\n%s", body)),
				},
			},
		},
	}

	_, err := m.client.SendEmail(ctx, input)
	return err
}
