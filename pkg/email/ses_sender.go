package email

import (
	"context"
	"fmt"

	"trip-planner/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ServiceInterface delivers trip summaries.
type ServiceInterface interface {
	SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error
}

// sesAPI is the slice of the SES v2 client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESV2Sender implements ServiceInterface using AWS SES v2.
type SESV2Sender struct {
	client    sesAPI
	fromEmail string
}

// NewSESV2Sender builds a sender from the default AWS credential chain.
func NewSESV2Sender(ctx context.Context, region, fromEmail string) (*SESV2Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("email.NewSESV2Sender: %w", err)
	}

	return &SESV2Sender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}, nil
}

// Tag attached to every message so SES event publishing can group trip
// summaries.
const (
	messageTagName  = "category"
	messageTagValue = "trip-summary"
	messageCharset  = "UTF-8"
)

// SendEmail sends one trip summary. An empty text or HTML body is left out
// of the message rather than sent blank.
func (s *SESV2Sender) SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error {
	body := &types.Body{}
	if plainTextContent != "" {
		body.Text = content(plainTextContent)
	}
	if htmlContent != "" {
		body.Html = content(htmlContent)
	}
	if body.Text == nil && body.Html == nil {
		return fmt.Errorf("email.SendEmail: empty message to %s", to)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: content(subject), Body: body},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String(messageTagName), Value: aws.String(messageTagValue)},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.Logger.WithError(err).WithField("to", to).Error("Failed to send trip summary via SES")
		return fmt.Errorf("email.SendEmail: %w", err)
	}

	log := utils.Logger.WithField("to", to)
	if out != nil && out.MessageId != nil {
		log = log.WithField("message_id", *out.MessageId)
	}
	log.Info("Trip summary email sent")
	return nil
}

func content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String(messageCharset)}
}
