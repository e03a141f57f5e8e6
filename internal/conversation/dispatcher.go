package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/pharmacare-bot/internal/observability/metrics"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

// DispatchReport summarizes one Dispatch call.
type DispatchReport struct {
	Sent     int
	Failed   int
	Fallback int
}

// Dispatcher executes directives against a Gateway in order. Failures are
// logged and followed by the directive's fallback chain; they are never
// returned to the caller.
type Dispatcher struct {
	gateway Gateway
	logger  *logging.Logger
	metrics *metrics.MessagingMetrics
	wait    func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(gateway Gateway, logger *logging.Logger, m *metrics.MessagingMetrics) *Dispatcher {
	if gateway == nil {
		panic("conversation: gateway cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{gateway: gateway, logger: logger, metrics: m, wait: sleepContext}
}

func (d *Dispatcher) Dispatch(ctx context.Context, to string, directives []Directive) DispatchReport {
	var report DispatchReport
	for i, dir := range directives {
		if dir.Delay > 0 {
			if err := d.wait(ctx, dir.Delay); err != nil {
				d.logger.Warn("dispatch interrupted before delayed message",
					"to", to, "remaining", len(directives)-i, "error", err)
				report.Failed += len(directives) - i
				return report
			}
		}

		current := &dir
		attempt := 0
		for current != nil {
			err := d.send(ctx, to, *current)
			if err == nil {
				report.Sent++
				if attempt > 0 {
					report.Fallback++
				}
				break
			}
			report.Failed++
			d.logger.Error("failed to send whatsapp message",
				"to", to, "kind", current.Kind, "attempt", attempt, "error", err)
			current = current.Fallback
			attempt++
		}
	}
	return report
}

func (d *Dispatcher) send(ctx context.Context, to string, dir Directive) error {
	var err error
	switch dir.Kind {
	case DirectiveText:
		err = d.gateway.SendText(ctx, to, dir.Text)
	case DirectiveButtons:
		if dir.Buttons == nil {
			return fmt.Errorf("conversation: buttons directive without payload")
		}
		err = d.gateway.SendButtons(ctx, to, *dir.Buttons)
	case DirectiveList:
		if dir.List == nil {
			return fmt.Errorf("conversation: list directive without payload")
		}
		err = d.gateway.SendList(ctx, to, *dir.List)
	case DirectiveTemplate:
		if dir.Template == nil {
			return fmt.Errorf("conversation: template directive without payload")
		}
		err = d.gateway.SendTemplate(ctx, to, *dir.Template)
	default:
		return fmt.Errorf("conversation: unknown directive kind %q", dir.Kind)
	}

	status := "sent"
	if err != nil {
		status = "failed"
	}
	d.metrics.ObserveOutbound(string(dir.Kind), status)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
