package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
)

const (
	defaultGraphAPIBase    = "https://graph.facebook.com"
	defaultAPIVersion      = "v21.0"
	defaultHTTPTimeout     = 10 * time.Second
	defaultListButtonLabel = "View Options"
)

var (
	ErrEmptyBody      = errors.New("whatsapp: message body is empty")
	ErrNoButtons      = errors.New("whatsapp: button message needs at least one button")
	ErrTooManyButtons = errors.New("whatsapp: too many buttons")
	ErrNoRows         = errors.New("whatsapp: list message needs at least one row")
	ErrTooManyRows    = errors.New("whatsapp: too many list rows")
	ErrNoTemplate     = errors.New("whatsapp: template name is empty")
)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	apiVersion    string
	graphAPIBase  string
	httpClient    *http.Client
}

var _ conversation.Gateway = (*Client)(nil)

// NewClient creates a Cloud API client for one business phone number.
func NewClient(accessToken, phoneNumberID, apiVersion string) *Client {
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		apiVersion:    apiVersion,
		graphAPIBase:  defaultGraphAPIBase,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		c.graphAPIBase = base
	}
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	_, err := c.send(ctx, SendRequest{
		To:   to,
		Type: "text",
		Text: &TextBody{Body: body, PreviewURL: strings.Contains(body, "https://")},
	})
	return err
}

func (c *Client) SendButtons(ctx context.Context, to string, msg conversation.ButtonMessage) error {
	switch {
	case strings.TrimSpace(msg.Body) == "":
		return ErrEmptyBody
	case len(msg.Buttons) == 0:
		return ErrNoButtons
	case len(msg.Buttons) > conversation.MaxButtons:
		return fmt.Errorf("%w: %d > %d", ErrTooManyButtons, len(msg.Buttons), conversation.MaxButtons)
	}

	buttons := make([]ReplyButton, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		buttons = append(buttons, ReplyButton{Type: "reply", Reply: Reply{ID: b.ID, Title: b.Title}})
	}
	interactive := &Interactive{
		Type:   "button",
		Header: textHeader(msg.Header),
		Body:   TextPart{Text: msg.Body},
		Footer: footer(msg.Footer),
		Action: InteractiveAction{Buttons: buttons},
	}
	_, err := c.send(ctx, SendRequest{To: to, Type: "interactive", Interactive: interactive})
	return err
}

func (c *Client) SendList(ctx context.Context, to string, msg conversation.ListMessage) error {
	rows := msg.RowCount()
	switch {
	case strings.TrimSpace(msg.Body) == "":
		return ErrEmptyBody
	case rows == 0:
		return ErrNoRows
	case rows > conversation.MaxListRows:
		return fmt.Errorf("%w: %d > %d", ErrTooManyRows, rows, conversation.MaxListRows)
	}

	label := msg.ButtonLabel
	if strings.TrimSpace(label) == "" {
		label = defaultListButtonLabel
	}
	sections := make([]ListSection, 0, len(msg.Sections))
	for _, s := range msg.Sections {
		sec := ListSection{Title: s.Title}
		for _, r := range s.Rows {
			sec.Rows = append(sec.Rows, ListRow{ID: r.ID, Title: r.Title, Description: r.Description})
		}
		sections = append(sections, sec)
	}
	interactive := &Interactive{
		Type:   "list",
		Header: textHeader(msg.Header),
		Body:   TextPart{Text: msg.Body},
		Footer: footer(msg.Footer),
		Action: InteractiveAction{Button: label, Sections: sections},
	}
	_, err := c.send(ctx, SendRequest{To: to, Type: "interactive", Interactive: interactive})
	return err
}

func (c *Client) SendTemplate(ctx context.Context, to string, msg conversation.TemplateMessage) error {
	if strings.TrimSpace(msg.Name) == "" {
		return ErrNoTemplate
	}
	lang := msg.Language
	if lang == "" {
		lang = "en_US"
	}
	tmpl := &Template{Name: msg.Name, Language: TemplateLanguage{Code: lang}}
	if msg.HeaderURL != "" {
		param := TemplateParameter{}
		switch msg.HeaderType {
		case conversation.HeaderDocument:
			param.Type = "document"
			param.Document = &MediaLink{Link: msg.HeaderURL}
		default:
			param.Type = "image"
			param.Image = &MediaLink{Link: msg.HeaderURL}
		}
		tmpl.Components = []TemplateComponent{{Type: "header", Parameters: []TemplateParameter{param}}}
	}
	_, err := c.send(ctx, SendRequest{To: to, Type: "template", Template: tmpl})
	return err
}

func textHeader(text string) *InteractiveText {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &InteractiveText{Type: "text", Text: text}
}

func footer(text string) *TextPart {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &TextPart{Text: text}
}

func (c *Client) send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	req.MessagingProduct = "whatsapp"
	req.RecipientType = "individual"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.graphAPIBase, c.apiVersion, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send %s: %w", req.Type, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &sendResp); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
		}
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return &sendResp, nil
}
