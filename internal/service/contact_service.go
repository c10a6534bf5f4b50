package service

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/observability"
	"storefront/internal/validation"
)

const (
	MsgContactSent   = "Your message has been sent successfully! We will contact you shortly."
	MsgContactFailed = "An error occurred while sending your message. Please try again later."
)

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactResult tells the caller whether both emails went out.
type ContactResult struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ContactService handles contact form submissions.
type ContactService struct {
	mailer   notifications.Mailer
	operator string
}

// NewContactService sends operator notifications to operator, normally
// DEFAULT_FROM_EMAIL.
func NewContactService(mailer notifications.Mailer, operator string) *ContactService {
	return &ContactService{mailer: mailer, operator: operator}
}

// Submit validates the form and sends the operator notification followed by
// the reply to the sender. A delivery failure does not fail the request.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*ContactResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if fields := validation.Struct(in, nil); fields != nil {
		return nil, models.NewFieldsError(fields)
	}

	contact := notifications.Contact{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Message: in.Message,
	}
	if err := s.deliver(ctx, contact); err != nil {
		derr := models.NewDeliveryError(err)
		middleware.Logger.ErrorContext(ctx, "contact form delivery failed",
			slog.String("email", in.Email),
			slog.String("error", derr.Error()),
		)
		return &ContactResult{Sent: false, Message: MsgContactFailed}, nil
	}
	return &ContactResult{Sent: true, Message: MsgContactSent}, nil
}

func (s *ContactService) deliver(ctx context.Context, c notifications.Contact) (err error) {
	ctx, end := observability.StartSpan(ctx, "contact.deliver")
	defer end(&err)

	notice, err := notifications.ContactMessage(c, s.operator)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, notice); err != nil {
		return err
	}
	reply, err := notifications.ContactReply(c)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, reply)
}
