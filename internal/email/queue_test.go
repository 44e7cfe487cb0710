package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ErlanBelekov/uptask-api/internal/email"
)

type fakePublisher struct {
	bodies [][]byte
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

func TestQueueSender_RoundTrip(t *testing.T) {
	pub := &fakePublisher{}
	s := email.NewQueueSender(pub)

	want := email.Message{Kind: email.KindVerifyEmail, To: "a@x.com", Subject: "s", HTML: "<p>h</p>", Text: "t"}
	if err := s.Send(context.Background(), want); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(pub.bodies) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.bodies))
	}

	got, err := email.Decode(pub.bodies[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestQueueSender_PublishError(t *testing.T) {
	s := email.NewQueueSender(&fakePublisher{err: errors.New("channel closed")})
	if err := s.Send(context.Background(), email.Message{To: "a@x.com"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, body := range []string{"not json", `{"kind":"verify_email"}`} {
		if _, err := email.Decode([]byte(body)); err == nil {
			t.Errorf("Decode(%q) should fail", body)
		}
	}
}

func TestNewSender(t *testing.T) {
	if _, err := email.NewSender(email.Config{Driver: "log"}, nil, discardLogger()); err != nil {
		t.Errorf("log driver: %v", err)
	}
	if _, err := email.NewSender(email.Config{Driver: "amqp"}, nil, discardLogger()); err == nil {
		t.Error("amqp driver without publisher should fail")
	}
	if _, err := email.NewSender(email.Config{Driver: "pigeon"}, nil, discardLogger()); err == nil {
		t.Error("unknown driver should fail")
	}
}
