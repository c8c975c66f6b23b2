package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/document"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/pkg/utils"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one email transmission
const DefaultTimeout = 20 * time.Second

// ErrNoDocument is returned when Send is called without a composed document
var ErrNoDocument = errors.New("no document to send")

// Message is the user-editable part of an email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier receives the EMAIL_SENT notification
type Notifier interface {
	Publish(ctx context.Context, n entity.Notification) error
}

// Dispatcher sends composed documents through the backend mail endpoint
type Dispatcher struct {
	gateway  port.MailGateway
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a new email dispatcher. notifier may be nil.
func NewDispatcher(gateway port.MailGateway, notifier Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		gateway:  gateway,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// Send emails doc as an attachment. It does not depend on the bill having been saved.
func (d *Dispatcher) Send(ctx context.Context, doc *document.Document, bill *entity.Bill, msg Message) error {
	if doc == nil || len(doc.Content) == 0 {
		return ErrNoDocument
	}

	msg = d.withDefaults(doc, bill, msg)
	if err := utils.ValidateEmail(msg.To); err != nil {
		return port.NewValidationError("emailTo", err.Error())
	}

	d.logger.Info("Sending bill email",
		zap.String("invoice_number", doc.InvoiceNumber),
		zap.String("email_to", msg.To))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := &port.EmailRequest{
		BillData:  bill,
		PDFBase64: doc.Attachment(),
		EmailTo:   msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
	}

	err := d.gateway.SendBillEmail(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, port.ErrTimeout) {
			d.logger.Warn("Email transmission timed out",
				zap.String("invoice_number", doc.InvoiceNumber),
				zap.Duration("timeout", d.timeout))
			return &port.TimeoutError{Op: "send email"}
		}
		d.logger.Error("Failed to send email",
			zap.String("invoice_number", doc.InvoiceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	d.logger.Info("Bill email sent",
		zap.String("invoice_number", doc.InvoiceNumber),
		zap.String("email_to", msg.To))

	if d.notifier != nil {
		n := entity.Notification{
			Kind:       entity.NotificationEmailSent,
			Title:      "Email sent",
			Message:    fmt.Sprintf("%s %s sent to %s", doc.Kind.Title(), doc.InvoiceNumber, msg.To),
			BillNumber: doc.InvoiceNumber,
		}
		if err := d.notifier.Publish(context.WithoutCancel(ctx), n); err != nil {
			d.logger.Warn("Failed to publish email notification", zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) withDefaults(doc *document.Document, bill *entity.Bill, msg Message) Message {
	msg.To = strings.TrimSpace(msg.To)
	if msg.To == "" && bill != nil {
		msg.To = strings.TrimSpace(bill.Contact.Email)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		msg.Subject = DefaultSubject(doc)
	}
	if strings.TrimSpace(msg.Body) == "" {
		msg.Body = DefaultBody(doc, bill)
	}
	return msg
}

// DefaultSubject is the subject used when the user leaves it empty
func DefaultSubject(doc *document.Document) string {
	subject := fmt.Sprintf("%s %s", doc.Kind.Title(), doc.InvoiceNumber)
	if doc.Company != "" {
		subject += " from " + doc.Company
	}
	if doc.Cancelled {
		subject = "[CANCELLED] " + subject
	}
	return subject
}

// DefaultBody is the body used when the user leaves it empty
func DefaultBody(doc *document.Document, bill *entity.Bill) string {
	var b strings.Builder
	name := "Customer"
	if bill != nil && bill.CustomerName != "" {
		name = bill.CustomerName
	}
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "Please find attached %s %s", strings.ToLower(doc.Kind.Title()), doc.InvoiceNumber)
	if bill != nil {
		fmt.Fprintf(&b, " for %s", bill.Tax.RoundedTotal.StringFixed(2))
	}
	b.WriteString(".\n")
	if doc.Cancelled {
		b.WriteString("\nThis document has been cancelled.\n")
	}
	b.WriteString("\nRegards,\n")
	if doc.Company != "" {
		b.WriteString(doc.Company)
		b.WriteString("\n")
	}
	return b.String()
}
