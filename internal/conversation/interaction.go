package conversation

import (
	"strings"
	"time"
)

// Kind tags what the user did on their side of the chat.
type Kind string

const (
	KindText Kind = "text"
	// KindButton is a reply button tapped on an interactive message.
	KindButton Kind = "button"
	// KindTemplateButton is a quick reply on a template message. Its payload
	// may be free-form, so the button text is matched by keyword as well.
	KindTemplateButton Kind = "template_button"
	KindList           Kind = "list"
	KindUnsupported    Kind = "unsupported"
)

// Interaction is one normalized inbound WhatsApp message.
type Interaction struct {
	MessageID   string    `json:"message_id"`
	From        string    `json:"from"`
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text,omitempty"`
	ReplyID     string    `json:"reply_id,omitempty"`
	ReplyTitle  string    `json:"reply_title,omitempty"`
	ProfileName string    `json:"profile_name,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ActionKind enumerates everything the engine knows how to do.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionShowMenu
	ActionReorder
	ActionReorderAll
	ActionBrowseCategories
	ActionShowCategory
	ActionSelectItem
	ActionConfirmAdd
	ActionViewCart
	ActionConfirmOrder
	ActionPayCOD
	ActionClearCart
	ActionNewOrder
	ActionTrackOrder
	ActionMoreOptions
	ActionRegister
	ActionAppDownload
	ActionAboutProgram
	ActionContactCare
)

var actionNames = map[ActionKind]string{
	ActionUnknown:          "unknown",
	ActionShowMenu:         "show_menu",
	ActionReorder:          "reorder",
	ActionReorderAll:       "reorder_all",
	ActionBrowseCategories: "browse_categories",
	ActionShowCategory:     "show_category",
	ActionSelectItem:       "select_item",
	ActionConfirmAdd:       "confirm_add",
	ActionViewCart:         "view_cart",
	ActionConfirmOrder:     "confirm_order",
	ActionPayCOD:           "payment_cod",
	ActionClearCart:        "clear_cart",
	ActionNewOrder:         "new_order",
	ActionTrackOrder:       "track_order",
	ActionMoreOptions:      "more_options",
	ActionRegister:         "register",
	ActionAppDownload:      "app_download",
	ActionAboutProgram:     "about_us",
	ActionContactCare:      "contact_care",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is a parsed interaction. ItemID and Category are set only for the
// kinds that carry them.
type Action struct {
	Kind     ActionKind
	ItemID   string
	Category string
	// Source is the interaction kind the action came from; the engine uses it
	// to word the apology for unknown tokens.
	Source Kind
	Raw    string
}

// Reply tokens. Some are shared by buttons and list rows.
const (
	tokenReorder        = "reorder"
	tokenPlaceNewOrder  = "place_new_order"
	tokenConfirmOrder   = "confirm_order"
	tokenPaymentCOD     = "payment_cod"
	tokenBackToCart     = "back_to_cart"
	tokenClearCart      = "clear_cart"
	tokenBackToMain     = "back_to_main"
	tokenBackToExplore  = "back_to_explore"
	tokenViewCart       = "view_cart"
	tokenTrackOrder     = "track_order"
	tokenNewOrder       = "new_order"
	tokenReorderAllLast = "reorder_all_last"
	tokenMoreOptions    = "more_options"
	tokenRegister       = "register"
	tokenAppDownload    = "app_download"
	tokenAboutUs        = "about_us"
	tokenContactCare    = "contact_care"

	prefixConfirmAdd = "confirm_add_"
	prefixAdd        = "add_"
	prefixCategory   = "category_"
)

var buttonTokens = map[string]ActionKind{
	tokenReorder:       ActionReorder,
	tokenPlaceNewOrder: ActionBrowseCategories,
	tokenConfirmOrder:  ActionConfirmOrder,
	tokenPaymentCOD:    ActionPayCOD,
	tokenBackToCart:    ActionViewCart,
	tokenClearCart:     ActionClearCart,
	tokenBackToMain:    ActionShowMenu,
	tokenViewCart:      ActionViewCart,
	tokenTrackOrder:    ActionTrackOrder,
	tokenNewOrder:      ActionNewOrder,
	tokenMoreOptions:   ActionMoreOptions,
	tokenRegister:      ActionRegister,
	tokenAppDownload:   ActionAppDownload,
	tokenAboutUs:       ActionAboutProgram,
	tokenContactCare:   ActionContactCare,
}

var listTokens = map[string]ActionKind{
	tokenBackToMain:     ActionShowMenu,
	tokenBackToExplore:  ActionBrowseCategories,
	tokenViewCart:       ActionViewCart,
	tokenReorderAllLast: ActionReorderAll,
	tokenRegister:       ActionRegister,
	tokenAppDownload:    ActionAppDownload,
	tokenAboutUs:        ActionAboutProgram,
	tokenContactCare:    ActionContactCare,
}

// tokenAliases maps ids used by older deployments of the support bot.
var tokenAliases = map[string]string{
	"contact_care_executive": tokenContactCare,
	"know_more":              tokenAboutUs,
}

var greetings = []string{"hi", "hello", "hey", "hii", "namaste", "start", "menu"}

// ParseAction converts an interaction into exactly one action.
func ParseAction(in Interaction) Action {
	switch in.Kind {
	case KindButton:
		return parseButton(in.ReplyID, in.Kind)
	case KindTemplateButton:
		act := parseButton(in.ReplyID, in.Kind)
		if act.Kind == ActionUnknown {
			if kind, ok := matchKeyword(in.ReplyTitle); ok {
				act.Kind = kind
			}
		}
		return act
	case KindList:
		return parseList(in.ReplyID)
	case KindText:
		// greetings and anything else land on the main menu
		act := Action{Kind: ActionShowMenu, Source: in.Kind, Raw: in.Text}
		if IsGreeting(in.Text) {
			act.Raw = strings.ToLower(strings.TrimSpace(in.Text))
		}
		return act
	default:
		return Action{Kind: ActionShowMenu, Source: in.Kind}
	}
}

func parseButton(id string, source Kind) Action {
	id = canonicalToken(id)
	act := Action{Source: source, Raw: id}
	if strings.HasPrefix(id, prefixConfirmAdd) {
		if itemID := strings.TrimPrefix(id, prefixConfirmAdd); itemID != "" {
			act.Kind = ActionConfirmAdd
			act.ItemID = itemID
		}
		return act
	}
	if kind, ok := buttonTokens[id]; ok {
		act.Kind = kind
	}
	return act
}

func parseList(id string) Action {
	id = canonicalToken(id)
	act := Action{Source: KindList, Raw: id}
	switch {
	case strings.HasPrefix(id, prefixCategory):
		if category := strings.TrimPrefix(id, prefixCategory); category != "" {
			act.Kind = ActionShowCategory
			act.Category = category
		}
		return act
	case strings.HasPrefix(id, prefixAdd):
		if itemID := strings.TrimPrefix(id, prefixAdd); itemID != "" {
			act.Kind = ActionSelectItem
			act.ItemID = itemID
		}
		return act
	}
	if kind, ok := listTokens[id]; ok {
		act.Kind = kind
	}
	return act
}

func canonicalToken(id string) string {
	id = strings.TrimSpace(id)
	if alias, ok := tokenAliases[id]; ok {
		return alias
	}
	return id
}

// matchKeyword maps template quick-reply captions to support actions.
func matchKeyword(text string) (ActionKind, bool) {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return ActionUnknown, false
	case strings.Contains(t, "register"):
		return ActionRegister, true
	case strings.Contains(t, "download") || strings.Contains(t, "app"):
		return ActionAppDownload, true
	case strings.Contains(t, "contact") || strings.Contains(t, "care") || strings.Contains(t, "support"):
		return ActionContactCare, true
	case strings.Contains(t, "about") || strings.Contains(t, "program") || strings.Contains(t, "know more"):
		return ActionAboutProgram, true
	}
	return ActionUnknown, false
}

// IsGreeting reports whether text opens with a greeting word.
func IsGreeting(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], "!.,?")
	for _, g := range greetings {
		if first == g {
			return true
		}
	}
	return false
}
