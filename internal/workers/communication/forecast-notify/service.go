// internal/workers/communication/forecast-notify/service.go
package forecastnotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	commonaws "weather-workers/internal/common/aws"
	"weather-workers/internal/common/errors"
	"weather-workers/internal/common/logger"
	"weather-workers/internal/common/validation"
	"weather-workers/internal/weather"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type ServiceDependencies struct {
	Forecaster weather.Forecaster
	SES        SESService
	SNS        SNSService
	Logger     logger.Logger
}

// Service produces a forecast and delivers it over the requested channels.
type Service struct {
	config     *Config
	forecaster weather.Forecaster
	ses        SESService
	sns        SNSService
	logger     logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:     config,
		forecaster: deps.Forecaster,
		ses:        deps.SES,
		sns:        deps.SNS,
		logger:     deps.Logger,
	}
}

// NewServiceFromConfig builds SES and SNS clients for the enabled channels.
func NewServiceFromConfig(ctx context.Context, config *Config, forecaster weather.Forecaster, log logger.Logger) (*Service, error) {
	deps := ServiceDependencies{Forecaster: forecaster, Logger: log}
	if config.EmailEnabled || config.SMSEnabled {
		awsCfg, err := commonaws.LoadConfig(ctx, config.AWSRegion)
		if err != nil {
			return nil, err
		}
		if config.EmailEnabled {
			deps.SES = commonaws.NewSESClient(awsCfg)
		}
		if config.SMSEnabled {
			deps.SNS = commonaws.NewSNSClient(awsCfg)
		}
	}
	return NewService(deps, config), nil
}

func (s *Service) Notify(ctx context.Context, p Params) (*Delivery, error) {
	if err := s.checkRecipients(p); err != nil {
		return nil, err
	}

	forecast, err := s.forecaster.GetReadableForecast(ctx, p.Zipcode, p.DaysAhead)
	if err != nil {
		return nil, err
	}

	delivery := &Delivery{NotificationID: uuid.New().String(), Forecast: forecast}

	if p.Email != "" {
		if err := s.sendEmail(ctx, p.Email, fmt.Sprintf("Weather forecast for %s", p.Zipcode), forecast); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, delivery.Channels, err)
		}
		delivery.Channels = append(delivery.Channels, ChannelEmail)
	}

	if p.Phone != "" {
		if err := s.sendSMS(ctx, p.Phone, forecast); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, delivery.Channels, err)
		}
		delivery.Channels = append(delivery.Channels, ChannelSMS)
	}

	s.logger.Info("forecast delivered", map[string]interface{}{
		"notificationId": delivery.NotificationID,
		"channels":       delivery.Channels,
		"zipcode":        p.Zipcode,
	})
	return delivery, nil
}

// checkRecipients rejects a request before any network call is made.
func (s *Service) checkRecipients(p Params) error {
	if p.Email == "" && p.Phone == "" {
		return errors.NewValidationFailedError(TaskType, []string{"email", "phone"},
			[]string{"one of email or phone is required"})
	}

	var fields, messages []string
	if p.Email != "" && !validation.ValidateEmail(p.Email) {
		fields = append(fields, "email")
		messages = append(messages, fmt.Sprintf("email: %q is not a valid address", p.Email))
	}
	if p.Phone != "" && !validation.ValidatePhone(p.Phone) {
		fields = append(fields, "phone")
		messages = append(messages, fmt.Sprintf("phone: %q is not in E.164 format", p.Phone))
	}
	if len(fields) > 0 {
		return errors.NewValidationFailedError(TaskType, fields, messages)
	}

	if p.Email != "" && (!s.config.EmailEnabled || s.ses == nil) {
		return errors.NewBusinessRuleError("Email notifications are disabled", "channel: email")
	}
	if p.Phone != "" && (!s.config.SMSEnabled || s.sns == nil) {
		return errors.NewBusinessRuleError("SMS notifications are disabled", "channel: sms")
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.config.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if s.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.config.SenderID),
			},
		}
	}
	_, err := s.sns.Publish(ctx, input)
	return err
}

// Summary is the tool result for a delivery.
func (d *Delivery) Summary(zipcode string, daysAhead int) string {
	return fmt.Sprintf("Forecast for %s (%d days ahead) sent via %s. Notification ID: %s",
		zipcode, daysAhead, strings.Join(d.Channels, " and "), d.NotificationID)
}
