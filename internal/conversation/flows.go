package conversation

import (
	"fmt"
	"strings"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/internal/session"
)

const defaultTrackingID = "ORD123456"

func (t *turn) reorderList() {
	last := t.e.catalog.Customer().LastOrder
	items := t.e.catalog.Lines(last)
	if len(items) == 0 {
		t.say(TextDirective("We couldn't find a previous order. Let me show you our medicines."))
		t.categories()
		return
	}

	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{
			ID:          prefixAdd + it.ID,
			Title:       it.RowTitle(),
			Description: fmt.Sprintf("%s - %s", rupees(it.Price), it.Category),
		})
	}
	t.say(ListDirective(ListMessage{
		Body:        "Select items from your last order:",
		ButtonLabel: "Select Items",
		Header:      "📦 Last Order Items",
		Footer:      "Tap to select individual items",
		Sections: []Section{
			{Title: "Your Last Order Items", Rows: rows},
			{Title: "Options", Rows: []Row{
				{ID: tokenReorderAllLast, Title: "🔁 Reorder All Items", Description: "Add all items from last order"},
				{ID: tokenBackToMain, Title: "⬅️ Back to Main Menu", Description: "Return to main options"},
			}},
		},
	}))
	t.setState(session.StateReorderSelection)
}

func (t *turn) reorderAll() {
	t.setCart(append(t.cart, t.e.catalog.Customer().LastOrder...))
	t.say(TextDirective("✅ Added all items from your last order to the cart!"))
	t.viewCart()
}

func (t *turn) categories() {
	cats := t.e.catalog.Categories()
	rows := make([]Row, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, Row{
			ID:          prefixCategory + c,
			Title:       c,
			Description: fmt.Sprintf("View all %s medicines", c),
		})
	}
	t.say(ListDirective(ListMessage{
		Body:        "To view our medicines, please select a category:",
		ButtonLabel: "Browse Categories",
		Header:      "🔬 All Medicines",
		Sections: []Section{
			{Title: "Select a Category", Rows: rows},
			{Title: "Navigation", Rows: []Row{
				{ID: tokenBackToMain, Title: "⬅️ Back to Main", Description: "Return to main options"},
			}},
		},
	}))
	t.setState(session.StateBrowsingCategories)
}

func (t *turn) categoryItems(category string) {
	items := t.e.catalog.InCategory(category)
	if len(items) == 0 {
		t.say(TextDirective("No medicines found for that category. Please try again."))
		t.categories()
		return
	}

	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{ID: prefixAdd + it.ID, Title: it.RowTitle(), Description: rupees(it.Price)})
	}
	t.say(ListDirective(ListMessage{
		Body:        fmt.Sprintf("Select a medicine from the %s category:", category),
		ButtonLabel: "Add to Cart",
		Header:      "💊 " + category,
		Sections: []Section{
			{Title: category + " Medicines", Rows: rows},
			{Title: "Navigation", Rows: []Row{
				{ID: tokenBackToExplore, Title: "⬅️ Back to Categories", Description: "Choose a different category"},
			}},
		},
	}))
	t.setState(session.StateBrowsingCategoryItems)
	t.patch.SetActiveCategory(category)
}

func (t *turn) selectItem(id string) {
	item, ok := t.e.catalog.Item(id)
	if !ok {
		t.notFound()
		return
	}
	if !item.InStock() {
		t.substitutions(item)
		return
	}

	t.say(ButtonsDirective(ButtonMessage{
		Body: fmt.Sprintf("💊 %s\n\n💰 Price: %s\n🏷️ Category: %s\n\nWould you like to add this to your cart?",
			item.Name, rupees(item.Price), item.Category),
		Header: "📋 Medicine Details",
		Footer: "Confirm to add to cart",
		Buttons: []Button{
			{ID: prefixConfirmAdd + item.ID, Title: "✅ Add to Cart"},
			{ID: tokenPlaceNewOrder, Title: "🔍 Continue Shopping"},
			{ID: tokenViewCart, Title: "🛒 View Cart"},
		},
	}))
	t.setState(session.StateItemDetailShown)
	t.patch.SetPendingItem(item.ID)
}

func (t *turn) confirmAdd(id string) {
	item, ok := t.e.catalog.Item(id)
	if !ok {
		t.notFound()
		return
	}
	if !item.InStock() {
		t.substitutions(item)
		return
	}

	t.setCart(append(t.cart, item.ID))
	t.patch.SetPendingItem("")
	t.say(TextDirective(fmt.Sprintf("✅ Added %s to your cart!", item.Name)))
	t.recommendations(item)
}

func (t *turn) recommendations(item catalog.Item) {
	recs := t.e.catalog.Recommendations(item.ID)
	t.setState(session.StateRecommendationsShown)
	if len(recs) == 0 {
		t.say(ButtonsDirective(ButtonMessage{
			Body:   "What would you like to do next?",
			Header: "Item Added",
			Buttons: []Button{
				{ID: tokenPlaceNewOrder, Title: "➕ Add More Items"},
				{ID: tokenViewCart, Title: "🛒 View Cart"},
			},
		}))
		return
	}

	rows := make([]Row, 0, len(recs)+2)
	for _, r := range recs {
		rows = append(rows, Row{ID: prefixAdd + r.ID, Title: r.RowTitle(), Description: rupees(r.Price)})
	}
	rows = append(rows,
		Row{ID: tokenViewCart, Title: "🛒 View Cart", Description: "Review your order total"},
		Row{ID: tokenBackToExplore, Title: "⬅️ Continue Shopping", Description: "Choose a different medicine"},
	)
	t.say(ListDirective(ListMessage{
		Body:        "Based on your recent selection, these items might interest you:",
		ButtonLabel: "View Recommendations",
		Header:      "💡 Recommendations",
		Footer:      "We've curated these just for you!",
		Sections:    []Section{{Title: "You might also like...", Rows: rows}},
	}))
}

// substitutions offers alternatives for an out-of-stock item. The cart is
// never touched here.
func (t *turn) substitutions(item catalog.Item) {
	subs := t.e.catalog.Substitutions(item.ID)
	if len(subs) == 0 {
		t.say(TextDirective(fmt.Sprintf(
			"Sorry, we are out of stock for %s and could not find a suitable substitute at this time.", item.Name)))
		t.patch.SetPendingItem("")
		t.categories()
		return
	}

	rows := make([]Row, 0, len(subs)+1)
	for _, s := range subs {
		rows = append(rows, Row{ID: prefixAdd + s.ID, Title: s.RowTitle(), Description: rupees(s.Price)})
	}
	rows = append(rows, Row{ID: tokenBackToExplore, Title: "⬅️ Back to Categories", Description: "Choose a different category"})
	t.say(ListDirective(ListMessage{
		Body:        fmt.Sprintf("Sorry, %s is out of stock. We recommend these substitutes:", item.Name),
		ButtonLabel: "Choose a Substitute",
		Header:      "💊 Substitutions for " + item.Name,
		Footer:      "Tap to select an alternative",
		Sections:    []Section{{Title: "Available Substitutes", Rows: rows}},
	}))
	t.setState(session.StateAwaitingSubstitution)
	t.patch.SetPendingItem(item.ID)
}

func (t *turn) notFound() {
	t.say(TextDirective("Sorry, medicine not found."))
	t.welcome()
}

func (t *turn) viewCart() {
	if len(t.cart) == 0 {
		t.emptyCart()
		return
	}
	t.say(ButtonsDirective(ButtonMessage{
		Body: fmt.Sprintf("Here's what's in your cart:\n\n%s\n\n💰 Subtotal: ₹%s\n\nWhat would you like to do next?",
			t.cartLines(), t.e.catalog.Total(t.cart)),
		Header: "🛍️ Shopping Cart",
		Footer: "Choose your next action",
		Buttons: []Button{
			{ID: tokenConfirmOrder, Title: "✅ Confirm Order"},
			{ID: tokenPlaceNewOrder, Title: "➕ Add More"},
			{ID: tokenClearCart, Title: "🗑️ Clear Cart"},
		},
	}))
	t.setState(session.StateCartReview)
}

func (t *turn) emptyCart() {
	t.say(TextDirective("Your cart is empty. Let me show you our medicines."))
	t.welcome()
}

func (t *turn) confirmOrder() {
	if len(t.cart) == 0 {
		t.emptyCart()
		return
	}
	t.say(ButtonsDirective(ButtonMessage{
		Body: fmt.Sprintf("📋 Order Summary:\n\n%s\n\n💰 Total Amount: ₹%s\n\nPlease select your payment method:",
			t.cartLines(), t.e.catalog.Total(t.cart)),
		Header: "💳 Payment Options",
		Footer: "Secure payment processing",
		Buttons: []Button{
			{ID: tokenPaymentCOD, Title: "💵 Cash on Delivery"},
			{ID: tokenBackToCart, Title: "⬅️ Back to Cart"},
		},
	}))
	t.setState(session.StatePaymentSelection)
}

// staleCheckout answers a checkout button tapped from an earlier message.
// The cart may have changed since, so the customer reviews it again.
func (t *turn) staleCheckout() {
	if len(t.cart) == 0 {
		t.emptyCart()
		return
	}
	t.say(TextDirective("That button is from an earlier message. Please review your cart before checking out."))
	t.viewCart()
}

// payCashOnDelivery places the order immediately. No payment is verified.
func (t *turn) payCashOnDelivery() {
	if len(t.cart) == 0 {
		t.emptyCart()
		return
	}

	now := t.e.opts.Now()
	items := t.e.catalog.Lines(t.cart)
	order := &orders.Order{
		ID:            orderID(now.UnixMilli()),
		CustomerPhone: t.s.UserID,
		CustomerName:  t.customerName(),
		Lines:         orders.LinesFromItems(items),
		Total:         t.e.catalog.Total(t.cart),
		PaymentMethod: orders.PaymentCashOnDelivery,
		Status:        orders.StatusPlaced,
		PlacedAt:      now.UTC(),
	}
	t.order = order

	t.say(TextDirective(fmt.Sprintf("🎉 Order Placed Successfully!\n\n"+
		"📦 Order ID: %s\n👤 Customer: %s\n\n"+
		"📝 Items Ordered:\n%s\n\n"+
		"💸 Total Amount: ₹%s\n🚚 Payment Method: Cash on Delivery\n\n"+
		"⏱️ Your order will be delivered within 30-60 minutes.\n"+
		"📞 For any queries, call: %s\n\n"+
		"Thank you for choosing %s! ✨",
		order.ID, order.CustomerName, t.cartLines(), order.Total, t.e.opts.SupportPhone, t.e.opts.PharmacyName)))
	t.say(ButtonsDirective(ButtonMessage{
		Body:   "Need anything else?",
		Footer: "We're here to help!",
		Buttons: []Button{
			{ID: tokenNewOrder, Title: "🛒 Place New Order"},
			{ID: tokenTrackOrder, Title: "📦 Track Order"},
		},
	}).After(t.e.opts.FollowUpDelay))

	t.setCart(nil)
	t.patch.SetLastOrderID(order.ID)
	t.patch.SetPendingItem("")
	t.setState(session.StateOrderCompleted)
}

func (t *turn) clearCart() {
	t.cart = nil
	t.dirty = false
	t.reset = true
	t.say(TextDirective("🗑️ Cart cleared successfully!"))
	t.welcome()
}

func (t *turn) newOrder() {
	t.setCart(nil)
	t.patch.SetPendingItem("")
	t.patch.SetActiveCategory("")
	t.welcome()
}

func (t *turn) trackOrder() {
	id := t.s.LastOrderID
	if id == "" {
		id = defaultTrackingID
	}
	t.say(TextDirective(fmt.Sprintf("📦 Order Status for %s:\n\n"+
		"🚚 Your order is being prepared and will be delivered soon!\n\n"+
		"📞 For updates, call: %s", id, t.e.opts.SupportPhone)))
}

func (t *turn) cartLines() string {
	items := t.e.catalog.Lines(t.cart)
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s - %s", it.Name, rupees(it.Price)))
	}
	return strings.Join(lines, "\n")
}

func (t *turn) customerName() string {
	if t.e.catalog.IsKnownCustomer(t.s.UserID) {
		if name := t.e.catalog.Customer().Name; name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(t.in.ProfileName); name != "" {
		return name
	}
	return "Customer"
}

// orderID keeps the last six digits of the millisecond clock.
func orderID(unixMilli int64) string {
	return fmt.Sprintf("ORD%06d", unixMilli%1_000_000)
}
