package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	return &rest.Response{StatusCode: f.status}, nil
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{FromEmail: "orders@example.com"}, nil); sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "orders@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != defaultFromName {
		t.Errorf("expected default from name %q, got %q", defaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := &SendGridSender{client: fake, fromEmail: "orders@example.com", fromName: "Orders", logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com", Subject: "New order", Body: "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0].Subject != "New order" {
		t.Fatalf("unexpected sends %+v", fake.sent)
	}
}

func TestSendGridSender_Send_ErrorStatus(t *testing.T) {
	fake := &fakeSendGrid{status: 401}
	sender := &SendGridSender{client: fake, logger: logging.Default()}
	if err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com"}); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	if err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "orders@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "staff@example.com",
		Subject: "New order",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one SES call, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "PharmaCare Orders <orders@example.com>" {
		t.Errorf("unexpected from %q", got)
	}
	if in.Destination.ToAddresses[0] != "staff@example.com" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	body := in.Content.Simple.Body
	if aws.ToString(body.Text.Data) != "plain" || aws.ToString(body.Html.Data) != "<p>html</p>" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestSESSender_SendError(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "orders@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com", Body: "b"}); err == nil {
		t.Fatal("expected SES error to surface")
	}
}

func TestNewSESSender_NilWithoutClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{FromEmail: "orders@example.com"}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "staff@example.com"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}
