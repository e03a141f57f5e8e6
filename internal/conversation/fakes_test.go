package conversation

import (
	"context"
	"errors"
	"sync"
)

type sentMessage struct {
	To       string
	Kind     DirectiveKind
	Text     string
	Buttons  ButtonMessage
	List     ListMessage
	Template TemplateMessage
}

// recordingGateway records every send; kinds listed in failKinds error out.
type recordingGateway struct {
	mu        sync.Mutex
	sent      []sentMessage
	failKinds map[DirectiveKind]bool
}

var errGatewayDown = errors.New("gateway down")

func newRecordingGateway(fail ...DirectiveKind) *recordingGateway {
	g := &recordingGateway{failKinds: map[DirectiveKind]bool{}}
	for _, k := range fail {
		g.failKinds[k] = true
	}
	return g
}

func (g *recordingGateway) record(m sentMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failKinds[m.Kind] {
		return errGatewayDown
	}
	g.sent = append(g.sent, m)
	return nil
}

func (g *recordingGateway) SendText(_ context.Context, to, body string) error {
	return g.record(sentMessage{To: to, Kind: DirectiveText, Text: body})
}

func (g *recordingGateway) SendButtons(_ context.Context, to string, msg ButtonMessage) error {
	return g.record(sentMessage{To: to, Kind: DirectiveButtons, Buttons: msg, Text: msg.Body})
}

func (g *recordingGateway) SendList(_ context.Context, to string, msg ListMessage) error {
	return g.record(sentMessage{To: to, Kind: DirectiveList, List: msg, Text: msg.Body})
}

func (g *recordingGateway) SendTemplate(_ context.Context, to string, msg TemplateMessage) error {
	return g.record(sentMessage{To: to, Kind: DirectiveTemplate, Template: msg})
}

func (g *recordingGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}
