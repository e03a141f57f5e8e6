package conversation

import "context"

// Gateway delivers messages to a WhatsApp user.
type Gateway interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to string, msg ButtonMessage) error
	SendList(ctx context.Context, to string, msg ListMessage) error
	SendTemplate(ctx context.Context, to string, msg TemplateMessage) error
}
