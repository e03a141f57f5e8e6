package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// OrderNotifier e-mails pharmacy staff when a customer places an order.
type OrderNotifier struct {
	email        EmailSender
	to           string
	pharmacyName string
	logger       *logging.Logger
}

// NewOrderNotifier returns a notifier that does nothing when to is empty.
func NewOrderNotifier(email EmailSender, to, pharmacyName string, logger *logging.Logger) *OrderNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if pharmacyName == "" {
		pharmacyName = "Pharmacy"
	}
	return &OrderNotifier{email: email, to: strings.TrimSpace(to), pharmacyName: pharmacyName, logger: logger}
}

// NotifyOrderPlaced sends the staff e-mail for o.
func (n *OrderNotifier) NotifyOrderPlaced(ctx context.Context, o orders.Order) error {
	if n.to == "" {
		n.logger.Debug("notify: order e-mail recipient not configured, skipping", "order_id", o.ID)
		return nil
	}
	msg := EmailMessage{
		To:      n.to,
		ToName:  n.pharmacyName,
		Subject: fmt.Sprintf("New order %s (₹%s, %s)", o.ID, o.Total.String(), paymentLabel(o.PaymentMethod)),
		Body:    orderText(o),
		HTML:    orderHTML(o),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: order %s: %w", o.ID, err)
	}
	return nil
}

func paymentLabel(method string) string {
	if method == orders.PaymentCashOnDelivery {
		return "Cash on Delivery"
	}
	return method
}

func customerLabel(o orders.Order) string {
	if o.CustomerName == "" {
		return o.CustomerPhone
	}
	return fmt.Sprintf("%s (%s)", o.CustomerName, o.CustomerPhone)
}

func orderText(o orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s\n", customerLabel(o))
	fmt.Fprintf(&b, "Placed: %s\n\n", o.PlacedAt.Format("January 2, 2006 at 3:04 PM"))
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "- %s: ₹%s\n", l.Name, l.Price.String())
	}
	fmt.Fprintf(&b, "\nTotal: ₹%s\nPayment: %s\n", o.Total.String(), paymentLabel(o.PaymentMethod))
	return b.String()
}

func orderHTML(o orders.Order) string {
	var rows strings.Builder
	for _, l := range o.Lines {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td style=\"text-align:right\">₹%s</td></tr>", html.EscapeString(l.Name), l.Price.String())
	}
	return fmt.Sprintf(`<h2>Order %s</h2>
<p><strong>Customer:</strong> %s<br><strong>Placed:</strong> %s</p>
<table>%s<tr><td><strong>Total</strong></td><td style="text-align:right"><strong>₹%s</strong></td></tr></table>
<p><strong>Payment:</strong> %s</p>`,
		html.EscapeString(o.ID),
		html.EscapeString(customerLabel(o)),
		o.PlacedAt.Format("January 2, 2006 at 3:04 PM"),
		rows.String(),
		o.Total.String(),
		html.EscapeString(paymentLabel(o.PaymentMethod)),
	)
}
