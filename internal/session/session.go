// Package session keeps per-user conversation progress and shopping carts.
package session

import (
	"context"
	"errors"
	"time"
)

// State names the current point in the dialogue.
//
// Transition table (driven by conversation.Engine):
//
//	start                         -> welcome_shown (first contact, any payload)
//	welcome_shown                 -> reorder_selection | browsing_categories | support_menu
//	reorder_selection             -> item_detail_shown | awaiting_substitution_choice | cart_review
//	browsing_categories           -> browsing_category_items
//	browsing_category_items       -> item_detail_shown | awaiting_substitution_choice
//	item_detail_shown             -> recommendations_shown | awaiting_substitution_choice | cart_review
//	recommendations_shown         -> item_detail_shown | cart_review | browsing_categories
//	awaiting_substitution_choice  -> item_detail_shown | browsing_categories
//	cart_review                   -> payment_selection | browsing_categories | welcome_shown
//	payment_selection             -> order_completed | cart_review
//	order_completed               -> welcome_shown
//
// Any state falls back to welcome_shown on an unrecognized or missing target.
type State string

const (
	StateStart                 State = "start"
	StateWelcomeShown          State = "welcome_shown"
	StateReorderSelection      State = "reorder_selection"
	StateBrowsingCategories    State = "browsing_categories"
	StateBrowsingCategoryItems State = "browsing_category_items"
	StateItemDetailShown       State = "item_detail_shown"
	StateRecommendationsShown  State = "recommendations_shown"
	StateAwaitingSubstitution  State = "awaiting_substitution_choice"
	StateCartReview            State = "cart_review"
	StatePaymentSelection      State = "payment_selection"
	StateOrderCompleted        State = "order_completed"
	StateSupportMenu           State = "support_menu"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateStart, StateWelcomeShown, StateReorderSelection, StateBrowsingCategories,
		StateBrowsingCategoryItems, StateItemDetailShown, StateRecommendationsShown,
		StateAwaitingSubstitution, StateCartReview, StatePaymentSelection,
		StateOrderCompleted, StateSupportMenu:
		return true
	}
	return false
}

// Session is one user's conversation record.
type Session struct {
	UserID            string    `json:"userId"`
	State             State     `json:"state"`
	WelcomeShown      bool      `json:"welcomeShown"`
	Cart              []string  `json:"cart"`
	PendingItem       string    `json:"pendingItem,omitempty"`
	ActiveCategory    string    `json:"activeCategory,omitempty"`
	LastOrderID       string    `json:"lastOrderId,omitempty"`
	LastInteractionAt time.Time `json:"lastInteractionAt"`
}

// New returns the default session for a user seen for the first time.
func New(userID string, now time.Time) Session {
	return Session{
		UserID:            userID,
		State:             StateStart,
		Cart:              []string{},
		LastInteractionAt: now.UTC(),
	}
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	out := s
	out.Cart = append([]string{}, s.Cart...)
	return out
}

// Apply shallow-merges p into a copy of s and stamps the interaction time.
func (s Session) Apply(p Patch, now time.Time) Session {
	out := s.Clone()
	if p.State != nil {
		out.State = *p.State
	}
	if p.WelcomeShown != nil {
		out.WelcomeShown = *p.WelcomeShown
	}
	if p.Cart != nil {
		out.Cart = append([]string{}, (*p.Cart)...)
	}
	if p.PendingItem != nil {
		out.PendingItem = *p.PendingItem
	}
	if p.ActiveCategory != nil {
		out.ActiveCategory = *p.ActiveCategory
	}
	if p.LastOrderID != nil {
		out.LastOrderID = *p.LastOrderID
	}
	out.LastInteractionAt = now.UTC()
	return out
}

// Patch is a partial session update. Nil fields are left untouched.
type Patch struct {
	State          *State
	WelcomeShown   *bool
	Cart           *[]string
	PendingItem    *string
	ActiveCategory *string
	LastOrderID    *string
}

func (p *Patch) SetState(s State) { p.State = &s }

func (p *Patch) SetWelcomeShown(v bool) { p.WelcomeShown = &v }

func (p *Patch) SetCart(ids []string) {
	cp := append([]string{}, ids...)
	p.Cart = &cp
}

func (p *Patch) SetPendingItem(id string) { p.PendingItem = &id }

func (p *Patch) SetActiveCategory(c string) { p.ActiveCategory = &c }

func (p *Patch) SetLastOrderID(id string) { p.LastOrderID = &id }

// IsZero reports whether the patch changes nothing besides the timestamp.
func (p Patch) IsZero() bool {
	return p.State == nil && p.WelcomeShown == nil && p.Cart == nil &&
		p.PendingItem == nil && p.ActiveCategory == nil && p.LastOrderID == nil
}

// ErrNotFound is returned by Lookup for users that never interacted.
var ErrNotFound = errors.New("session: not found")

// Repository stores sessions keyed by user id. Get and Update create the
// default session on first use; nothing is ever deleted.
type Repository interface {
	Get(ctx context.Context, userID string) (Session, error)
	Update(ctx context.Context, userID string, patch Patch) (Session, error)
	ClearCart(ctx context.Context, userID string) error
	Lookup(ctx context.Context, userID string) (Session, error)
	Count(ctx context.Context) (int, error)
}
