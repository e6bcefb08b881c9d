package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendTransport delivers through the Resend HTTP API.
type ResendTransport struct {
	client *resend.Client
}

func NewResendTransport(apiKey string) *ResendTransport {
	return &ResendTransport{client: resend.NewClient(apiKey)}
}

func (t *ResendTransport) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	_, err := t.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.From,
		To:      []string{m.To},
		Subject: m.Subject,
		Text:    m.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
