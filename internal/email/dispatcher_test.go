package email_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/email"
	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type senderFunc func(ctx context.Context, msg email.Message) error

func (f senderFunc) Send(ctx context.Context, msg email.Message) error { return f(ctx, msg) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatch_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	var sent atomic.Int32
	d := email.NewDispatcher(senderFunc(func(ctx context.Context, _ email.Message) error {
		<-release
		sent.Add(1)
		return nil
	}), time.Second, discardLogger())

	start := time.Now()
	d.Dispatch(context.Background(), &email.Message{Kind: email.KindVerifyEmail, To: "a@x.com"})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Dispatch blocked for %s", elapsed)
	}
	if sent.Load() != 0 {
		t.Fatal("mail should not be sent yet")
	}

	close(release)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if sent.Load() != 1 {
		t.Fatalf("sent = %d, want 1", sent.Load())
	}
}

func TestDispatch_SurvivesRequestCancellation(t *testing.T) {
	var gotErr atomic.Value
	d := email.NewDispatcher(senderFunc(func(ctx context.Context, _ email.Message) error {
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			gotErr.Store(err)
		}
		return nil
	}), time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, &email.Message{Kind: email.KindVerifyEmail, To: "a@x.com"})
	cancel()

	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if v := gotErr.Load(); v != nil {
		t.Fatalf("send saw cancelled context: %v", v)
	}
}

func TestDispatch_FailureIsCounted(t *testing.T) {
	before := testutil.ToFloat64(metrics.MailSentTotal.WithLabelValues(string(email.KindResetPassword), "failed"))

	d := email.NewDispatcher(senderFunc(func(context.Context, email.Message) error {
		return errors.New("provider down")
	}), time.Second, discardLogger())

	d.Dispatch(context.Background(), &email.Message{Kind: email.KindResetPassword, To: "a@x.com"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	after := testutil.ToFloat64(metrics.MailSentTotal.WithLabelValues(string(email.KindResetPassword), "failed"))
	if after-before != 1 {
		t.Fatalf("failed counter delta = %v, want 1", after-before)
	}
}

func TestDispatch_AppliesTimeout(t *testing.T) {
	var deadline atomic.Bool
	d := email.NewDispatcher(senderFunc(func(ctx context.Context, _ email.Message) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}), 10*time.Millisecond, discardLogger())

	d.Dispatch(context.Background(), &email.Message{Kind: email.KindChangeEmail, To: "a@x.com"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !deadline.Load() {
		t.Fatal("send context should hit its deadline")
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	d := email.NewDispatcher(senderFunc(func(context.Context, email.Message) error {
		panic("boom")
	}), time.Second, discardLogger())

	d.Dispatch(context.Background(), &email.Message{Kind: email.KindVerifyEmail, To: "a@x.com"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestDispatch_NilMessage(t *testing.T) {
	d := email.NewDispatcher(senderFunc(func(context.Context, email.Message) error {
		t.Error("sender should not be called")
		return nil
	}), time.Second, discardLogger())

	d.Dispatch(context.Background(), nil)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestWait_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := email.NewDispatcher(senderFunc(func(context.Context, email.Message) error {
		<-block
		return nil
	}), time.Minute, discardLogger())

	d.Dispatch(context.Background(), &email.Message{Kind: email.KindVerifyEmail, To: "a@x.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
