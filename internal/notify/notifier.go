package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"auszug/internal/artifact"
	"auszug/internal/domain"
	dErrors "auszug/pkg/domain-errors"
)

// Delivery is one document to attach to the customer mail.
type Delivery struct {
	FileName string
	PDF      []byte
}

// Notifier sends the customer delivery mail and best-effort ops mail.
type Notifier struct {
	mailer   Mailer
	from     string
	opsEmail string
	log      *slog.Logger
}

func New(mailer Mailer, from, opsEmail string, log *slog.Logger) *Notifier {
	return &Notifier{mailer: mailer, from: from, opsEmail: opsEmail, log: log}
}

// SendDelivery sends exactly one customer email with the first document as
// the primary attachment and any second document as a secondary attachment.
func (n *Notifier) SendDelivery(ctx context.Context, order *domain.Order, docs []Delivery) error {
	if len(docs) == 0 {
		return dErrors.New(dErrors.CodeNotification, "no documents to deliver")
	}

	attachments := make([]Attachment, 0, len(docs))
	for _, doc := range docs {
		attachments = append(attachments, Attachment{
			Name:        doc.FileName,
			Content:     base64.StdEncoding.EncodeToString(doc.PDF),
			ContentType: artifact.PDFContentType,
		})
	}

	subject := fmt.Sprintf("Ihr Grundbuchauszug – Bestellung %s", order.OrderNumber)
	text := fmt.Sprintf(
		"Guten Tag %s,\n\nanbei erhalten Sie Ihren Grundbuchauszug (KG %s, EZ %s).\n\nVielen Dank für Ihre Bestellung.\n",
		order.CustomerName, order.RegistryArea, order.FolioNumber,
	)

	err := n.mailer.Send(ctx, Message{
		From:        n.from,
		To:          order.CustomerEmail,
		Subject:     subject,
		TextBody:    text,
		Attachments: attachments,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotification, "delivery mail failed")
	}

	n.log.Info("delivery mail sent",
		"order", order.OrderNumber,
		"to", order.CustomerEmail,
		"attachments", len(attachments),
	)
	return nil
}

// NotifyOps sends an internal notification. Fire-and-log: the failure is
// captured and recorded but never propagated to the caller's result.
func (n *Notifier) NotifyOps(ctx context.Context, subject, body string) {
	err := n.mailer.Send(ctx, Message{
		From:     n.from,
		To:       n.opsEmail,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		n.log.Warn("ops notification failed", "subject", subject, "error", err)
	}
}

// SendReminder sends one abandoned-checkout reminder. Stage selects the copy.
func (n *Notifier) SendReminder(ctx context.Context, session *domain.AbandonedSession, stage domain.ReminderStage) error {
	var subject, text string
	switch stage {
	case domain.ReminderFirst:
		subject = "Ihre Bestellung wartet auf Sie"
		text = fmt.Sprintf("Guten Tag %s,\n\nSie haben Ihre Bestellung (%s) noch nicht abgeschlossen. Ihre Angaben sind weiterhin gespeichert.\n", session.CustomerName, session.ProductName)
	case domain.ReminderSecond:
		subject = "Erinnerung: Ihr Grundbuchauszug"
		text = fmt.Sprintf("Guten Tag %s,\n\nIhre Bestellung (%s, %s) ist noch offen. Schließen Sie sie mit wenigen Klicks ab.\n", session.CustomerName, session.ProductName, session.ProductPrice)
	case domain.ReminderFinal:
		subject = "Letzte Erinnerung: Ihre Bestellung läuft ab"
		text = fmt.Sprintf("Guten Tag %s,\n\nIhre gespeicherte Bestellung (%s) wird in Kürze gelöscht.\n", session.CustomerName, session.ProductName)
	default:
		return dErrors.Newf(dErrors.CodeInternal, "unknown reminder stage %d", stage)
	}

	err := n.mailer.Send(ctx, Message{
		From:     n.from,
		To:       session.CustomerEmail,
		Subject:  subject,
		TextBody: text,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotification, "reminder mail failed")
	}
	return nil
}
