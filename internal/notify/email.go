package notify

import (
	"context"
	"fmt"

	commonaws "school-activities/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailNotifier sends the participant a confirmation through SES.
type EmailNotifier struct {
	client    commonaws.SESAPI
	fromEmail string
}

func NewEmailNotifier(client commonaws.SESAPI, fromEmail string) *EmailNotifier {
	return &EmailNotifier{client: client, fromEmail: fromEmail}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, event RosterEvent) error {
	subject, body := renderEmail(event)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

func renderEmail(event RosterEvent) (subject, body string) {
	switch event.Type {
	case EventUnregister:
		return fmt.Sprintf("You have left %s", event.Activity),
			fmt.Sprintf("Hi,\n\n%s has been removed from the %s roster.\n\nMergington High School Activities", event.Email, event.Activity)
	default:
		return fmt.Sprintf("You're signed up for %s", event.Activity),
			fmt.Sprintf("Hi,\n\n%s is now signed up for %s.\n\nMergington High School Activities", event.Email, event.Activity)
	}
}
