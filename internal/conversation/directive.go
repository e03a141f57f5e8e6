package conversation

import (
	"time"
	"unicode/utf8"
)

// Cloud API limits for interactive messages.
const (
	MaxButtons           = 3
	MaxListRows          = 10
	ButtonTitleLimit     = 20
	RowTitleLimit        = 24
	RowDescriptionLimit  = 72
	SectionTitleLimit    = 24
	HeaderLimit          = 60
	FooterLimit          = 60
	ListButtonLabelLimit = 20
	InteractiveBodyLimit = 1024
	TextBodyLimit        = 4096
)

type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

type ButtonMessage struct {
	Body    string
	Header  string
	Footer  string
	Buttons []Button
}

type ListMessage struct {
	Body        string
	ButtonLabel string
	Header      string
	Footer      string
	Sections    []Section
}

// RowCount is the number of rows across all sections.
func (m ListMessage) RowCount() int {
	n := 0
	for _, s := range m.Sections {
		n += len(s.Rows)
	}
	return n
}

// Template header media types.
const (
	HeaderImage    = "IMAGE"
	HeaderDocument = "DOCUMENT"
)

type TemplateMessage struct {
	Name       string
	Language   string
	HeaderType string
	HeaderURL  string
}

type DirectiveKind string

const (
	DirectiveText     DirectiveKind = "text"
	DirectiveButtons  DirectiveKind = "buttons"
	DirectiveList     DirectiveKind = "list"
	DirectiveTemplate DirectiveKind = "template"
)

// Directive is one outbound message the dispatcher must send. Exactly one of
// Text, Buttons, List or Template is meaningful, matching Kind.
type Directive struct {
	Kind     DirectiveKind
	Text     string
	Buttons  *ButtonMessage
	List     *ListMessage
	Template *TemplateMessage
	// Delay is waited before sending.
	Delay time.Duration
	// Fallback is sent instead when this directive fails.
	Fallback *Directive
}

func TextDirective(body string) Directive {
	return Directive{Kind: DirectiveText, Text: clip(body, TextBodyLimit)}
}

func ButtonsDirective(m ButtonMessage) Directive {
	m = m.normalized()
	return Directive{Kind: DirectiveButtons, Buttons: &m}
}

func ListDirective(m ListMessage) Directive {
	m = m.normalized()
	return Directive{Kind: DirectiveList, List: &m}
}

func TemplateDirective(m TemplateMessage) Directive {
	if m.Language == "" {
		m.Language = "en_US"
	}
	return Directive{Kind: DirectiveTemplate, Template: &m}
}

// WithFallback returns a copy of d that falls back to fb on failure.
func (d Directive) WithFallback(fb Directive) Directive {
	d.Fallback = &fb
	return d
}

// After returns a copy of d sent once delay has elapsed.
func (d Directive) After(delay time.Duration) Directive {
	d.Delay = delay
	return d
}

func (m ButtonMessage) normalized() ButtonMessage {
	out := ButtonMessage{
		Body:   clip(m.Body, InteractiveBodyLimit),
		Header: clip(m.Header, HeaderLimit),
		Footer: clip(m.Footer, FooterLimit),
	}
	for i, b := range m.Buttons {
		if i == MaxButtons {
			break
		}
		out.Buttons = append(out.Buttons, Button{ID: b.ID, Title: clip(b.Title, ButtonTitleLimit)})
	}
	return out
}

func (m ListMessage) normalized() ListMessage {
	out := ListMessage{
		Body:        clip(m.Body, InteractiveBodyLimit),
		ButtonLabel: clip(m.ButtonLabel, ListButtonLabelLimit),
		Header:      clip(m.Header, HeaderLimit),
		Footer:      clip(m.Footer, FooterLimit),
	}
	budget := MaxListRows
	for _, s := range m.Sections {
		if budget == 0 {
			break
		}
		sec := Section{Title: clip(s.Title, SectionTitleLimit)}
		for _, r := range s.Rows {
			if budget == 0 {
				break
			}
			sec.Rows = append(sec.Rows, Row{
				ID:          r.ID,
				Title:       clip(r.Title, RowTitleLimit),
				Description: clip(r.Description, RowDescriptionLimit),
			})
			budget--
		}
		if len(sec.Rows) > 0 {
			out.Sections = append(out.Sections, sec)
		}
	}
	return out
}

// clip cuts s to at most max runes.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
