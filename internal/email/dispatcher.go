package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/metrics"
)

// Dispatcher sends mails in the background after the HTTP response has been
// written. Sends are never retried; failures are logged and counted.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		logger:  logger.With("component", "mail_dispatcher"),
	}
}

// Dispatch returns immediately. ctx only contributes its values (request id);
// its cancellation does not reach the send.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) {
	if msg == nil {
		return
	}
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(detached, *msg)
	}()
}

func (d *Dispatcher) send(ctx context.Context, msg Message) {
	metrics.MailInFlight.Inc()
	defer metrics.MailInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "mail sender panicked", "kind", msg.Kind, "panic", r)
			metrics.MailSentTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Send(ctx, msg)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		d.logger.ErrorContext(ctx, "send mail", "kind", msg.Kind, "error", err)
		metrics.MailSentTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
		return
	}
	d.logger.DebugContext(ctx, "mail sent", "kind", msg.Kind)
	metrics.MailSentTotal.WithLabelValues(string(msg.Kind), "sent").Inc()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
