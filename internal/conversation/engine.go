package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/internal/session"
)

const defaultFollowUpDelay = 2 * time.Second

// Options carries the pharmacy-specific wording and links.
type Options struct {
	PharmacyName    string
	SupportPhone    string
	RegisterFormURL string
	AppDownloadURL  string
	CustomerCare    string
	AboutProgramURL string
	WelcomeTemplate string
	WelcomeImageURL string
	// FollowUpDelay paces the post-order prompt. Zero means the 2s default,
	// a negative value sends it right away.
	FollowUpDelay time.Duration
	Now           func() time.Time
}

// Decision is everything one interaction produces: what to send, how the
// session changes and, on checkout, the placed order. ClearCart asks the
// repository to empty the cart before Patch is applied.
type Decision struct {
	Action    Action
	Messages  []Directive
	Patch     session.Patch
	Order     *orders.Order
	ClearCart bool
}

// NextState reports the state the patch moves to, or from when unchanged.
func (d Decision) NextState(from session.State) session.State {
	if d.Patch.State != nil {
		return *d.Patch.State
	}
	return from
}

// Engine maps a session and an interaction to a Decision. It performs no I/O.
type Engine struct {
	catalog *catalog.Catalog
	opts    Options
}

func NewEngine(cat *catalog.Catalog, opts Options) *Engine {
	if cat == nil {
		panic("conversation: catalog cannot be nil")
	}
	if opts.PharmacyName == "" {
		opts.PharmacyName = "Ganesh Medicals"
	}
	if opts.SupportPhone == "" {
		opts.SupportPhone = "+91-9876543210"
	}
	if opts.FollowUpDelay < 0 {
		opts.FollowUpDelay = 0
	} else if opts.FollowUpDelay == 0 {
		opts.FollowUpDelay = defaultFollowUpDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{catalog: cat, opts: opts}
}

// Decide runs one turn.
func (e *Engine) Decide(s session.Session, in Interaction) Decision {
	t := e.newTurn(s, in)

	if !s.WelcomeShown {
		t.patch.SetWelcomeShown(true)
		t.welcome()
		return t.decision(Action{Kind: ActionShowMenu, Source: in.Kind, Raw: "first_contact"})
	}

	act := ParseAction(in)
	switch act.Kind {
	case ActionShowMenu:
		t.welcome()
	case ActionReorder:
		t.reorderList()
	case ActionReorderAll:
		t.reorderAll()
	case ActionBrowseCategories:
		t.categories()
	case ActionShowCategory:
		t.categoryItems(act.Category)
	case ActionSelectItem:
		t.selectItem(act.ItemID)
	case ActionConfirmAdd:
		t.confirmAdd(act.ItemID)
	case ActionViewCart:
		t.viewCart()
	case ActionConfirmOrder:
		if s.State == session.StateCartReview || s.State == session.StatePaymentSelection {
			t.confirmOrder()
		} else {
			t.staleCheckout()
		}
	case ActionPayCOD:
		if s.State == session.StatePaymentSelection {
			t.payCashOnDelivery()
		} else {
			t.staleCheckout()
		}
	case ActionClearCart:
		t.clearCart()
	case ActionNewOrder:
		t.newOrder()
	case ActionTrackOrder:
		t.trackOrder()
	case ActionMoreOptions:
		t.supportMenu()
	case ActionRegister:
		t.say(TextDirective(e.registerText()))
	case ActionAppDownload:
		t.say(TextDirective(e.appDownloadText()))
	case ActionAboutProgram:
		t.say(TextDirective(e.aboutText()))
	case ActionContactCare:
		t.say(TextDirective(e.customerCareText()))
	default:
		t.unknown(act.Source)
	}
	return t.decision(act)
}

// Rejection is sent to senders outside the allow-list.
func (e *Engine) Rejection() Directive {
	return TextDirective("Sorry, this pharmacy bot is currently in POC mode and only serves registered customers. Please contact support for assistance.")
}

// Recovery is sent when a turn could not be processed.
func (e *Engine) Recovery() []Directive {
	return []Directive{
		TextDirective("Oops! Something went wrong. Let me help you start fresh."),
		e.welcomeDirective(),
	}
}

// turn accumulates the outcome of one Decide call. cart is the working copy
// the patch will carry when it changed.
type turn struct {
	e     *Engine
	s     session.Session
	in    Interaction
	cart  []string
	dirty bool
	patch session.Patch
	out   []Directive
	order *orders.Order
	reset bool
}

func (e *Engine) newTurn(s session.Session, in Interaction) *turn {
	return &turn{e: e, s: s, in: in, cart: append([]string{}, s.Cart...)}
}

func (t *turn) say(ds ...Directive) {
	t.out = append(t.out, ds...)
}

func (t *turn) setState(st session.State) {
	t.patch.SetState(st)
}

func (t *turn) setCart(ids []string) {
	t.cart = append([]string{}, ids...)
	t.dirty = true
}

func (t *turn) decision(act Action) Decision {
	if t.dirty {
		t.patch.SetCart(t.cart)
	}
	return Decision{Action: act, Messages: t.out, Patch: t.patch, Order: t.order, ClearCart: t.reset}
}

func (t *turn) welcome() {
	t.say(t.e.welcomeDirective())
	t.setState(session.StateWelcomeShown)
}

func (t *turn) unknown(source Kind) {
	if source == KindList {
		t.say(TextDirective("Sorry, I didn't understand that selection. Let me help you start over."))
	} else {
		t.say(TextDirective("Sorry, I didn't understand that. Let me help you start over."))
	}
	t.welcome()
}

// welcomeDirective is the main menu: a template when one is configured,
// falling back to reply buttons and finally to plain text.
func (e *Engine) welcomeDirective() Directive {
	plain := TextDirective(fmt.Sprintf("Welcome to %s! How can I help you today?", e.opts.PharmacyName))
	buttons := ButtonsDirective(ButtonMessage{
		Body: fmt.Sprintf("Hi! Welcome to %s. \n\nHow can we help you today?", e.opts.PharmacyName),
		Buttons: []Button{
			{ID: tokenReorder, Title: "🔁 Reorder"},
			{ID: tokenPlaceNewOrder, Title: "🔍 Explore More"},
			{ID: tokenMoreOptions, Title: "ℹ️ More Options"},
		},
	}).WithFallback(plain)

	if strings.TrimSpace(e.opts.WelcomeTemplate) == "" {
		return buttons
	}
	tmpl := TemplateMessage{Name: e.opts.WelcomeTemplate}
	if e.opts.WelcomeImageURL != "" {
		tmpl.HeaderType = HeaderImage
		tmpl.HeaderURL = e.opts.WelcomeImageURL
	}
	return TemplateDirective(tmpl).WithFallback(buttons)
}

func rupees(m catalog.Money) string {
	return "₹" + m.Short()
}
