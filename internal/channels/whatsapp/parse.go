package whatsapp

import (
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
)

// ParseWebhookEvent flattens a webhook event into user interactions and
// delivery statuses. Entries without messages or statuses are skipped.
func ParseWebhookEvent(event WebhookEvent) ([]conversation.Interaction, []Status) {
	var (
		interactions []conversation.Interaction
		statuses     []Status
	)
	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			v := change.Value
			statuses = append(statuses, v.Statuses...)
			if len(v.Messages) == 0 {
				continue
			}
			names := make(map[string]string, len(v.Contacts))
			for _, c := range v.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range v.Messages {
				if m.From == "" {
					continue
				}
				in := toInteraction(m)
				in.ProfileName = names[m.From]
				interactions = append(interactions, in)
			}
		}
	}
	return interactions, statuses
}

func toInteraction(m InboundMessage) conversation.Interaction {
	in := conversation.Interaction{
		MessageID:  m.ID,
		From:       m.From,
		Kind:       conversation.KindUnsupported,
		ReceivedAt: parseTimestamp(m.Timestamp),
	}
	switch m.Type {
	case "text":
		in.Kind = conversation.KindText
		if m.Text != nil {
			in.Text = m.Text.Body
		}
	case "button":
		if m.Button != nil {
			in.Kind = conversation.KindTemplateButton
			in.ReplyID = m.Button.Payload
			in.ReplyTitle = m.Button.Text
		}
	case "interactive":
		if m.Interactive == nil {
			break
		}
		switch {
		case m.Interactive.ButtonReply != nil:
			in.Kind = conversation.KindButton
			in.ReplyID = m.Interactive.ButtonReply.ID
			in.ReplyTitle = m.Interactive.ButtonReply.Title
		case m.Interactive.ListReply != nil:
			in.Kind = conversation.KindList
			in.ReplyID = m.Interactive.ListReply.ID
			in.ReplyTitle = m.Interactive.ListReply.Title
		}
	}
	return in
}

func parseTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
