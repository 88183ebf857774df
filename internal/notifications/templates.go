package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/aura-storefront/pkg/email"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/payloads"
)

const dateLayout = "Jan 2, 2006 15:04 MST"

func render(payload interface{}) (email.Message, error) {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		var b strings.Builder
		fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(p.UserName))
		fmt.Fprintf(&b, "We received your order %s (%d item(s), total $%s).\n", p.OrderID, p.ItemCount, p.TotalPrice)
		fmt.Fprintf(&b, "Payment method: %s.\n", p.PaymentMethod)
		if p.IsPaid {
			b.WriteString("Your payment has been confirmed.\n")
		} else {
			b.WriteString("Payment is due on delivery.\n")
		}
		return email.Message{
			ToName:  p.UserName,
			ToEmail: p.UserEmail,
			Subject: fmt.Sprintf("Order %s received", shortID(p.OrderID)),
			Text:    b.String(),
		}, nil
	case *payloads.OrderPaidEvent:
		return email.Message{
			ToName:  p.UserName,
			ToEmail: p.UserEmail,
			Subject: fmt.Sprintf("Order %s paid", shortID(p.OrderID)),
			Text: fmt.Sprintf("Hi %s,\n\nPayment of $%s for order %s was recorded on %s.\n",
				greetingName(p.UserName), p.TotalPrice, p.OrderID, formatTime(p.PaidAt)),
		}, nil
	case *payloads.OrderDeliveredEvent:
		return email.Message{
			ToName:  p.UserName,
			ToEmail: p.UserEmail,
			Subject: fmt.Sprintf("Order %s delivered", shortID(p.OrderID)),
			Text: fmt.Sprintf("Hi %s,\n\nOrder %s was delivered on %s. Enjoy!\n",
				greetingName(p.UserName), p.OrderID, formatTime(p.DeliveredAt)),
		}, nil
	default:
		return email.Message{}, fmt.Errorf("no email template for %T", payload)
	}
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "an unknown date"
	}
	return t.UTC().Format(dateLayout)
}
