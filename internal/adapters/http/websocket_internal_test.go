package http

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/safezone/internal/adapters/nats"
	"github.com/samirrijal/safezone/internal/core/domain"
)

// fakeBus routes published subjects to subscribers, honoring the ">" tail
// wildcard the alert feed uses.
type fakeBus struct {
	mu   sync.Mutex
	subs map[*fakeSub]struct{}
	fail error
}

type fakeSub struct {
	bus     *fakeBus
	subject string
	cb      nats.MsgHandler
}

func (s *fakeSub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s)
	return nil
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[*fakeSub]struct{})}
}

func (b *fakeBus) subscribe(subject string, cb nats.MsgHandler) (alertSubscription, error) {
	if b.fail != nil {
		return nil, b.fail
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &fakeSub{bus: b, subject: subject, cb: cb}
	b.subs[s] = struct{}{}
	return s, nil
}

func (b *fakeBus) publish(subject string) {
	b.mu.Lock()
	var targets []nats.MsgHandler
	for s := range b.subs {
		if s.subject == subject || (strings.HasSuffix(s.subject, ">") && strings.HasPrefix(subject, strings.TrimSuffix(s.subject, ">"))) {
			targets = append(targets, s.cb)
		}
	}
	b.mu.Unlock()
	for _, cb := range targets {
		cb(&nats.Msg{Subject: subject, Data: []byte(subject)})
	}
}

func (b *fakeBus) active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type received struct{ subjects []string }

func (r *received) relay(msg *nats.Msg) { r.subjects = append(r.subjects, msg.Subject) }

func TestAlertFeed_DefaultReceivesEveryLevel(t *testing.T) {
	bus := newFakeBus()
	var got received
	feed := newAlertFeed(bus.subscribe, got.relay)
	if err := feed.add(natsadapter.AlertSubjects); err != nil {
		t.Fatal(err)
	}

	bus.publish(natsadapter.AlertSubject(domain.RiskRed))
	bus.publish(natsadapter.AlertSubject(domain.RiskYellow))

	if len(got.subjects) != 2 {
		t.Errorf("expected 2 alerts, got %v", got.subjects)
	}
}

func TestAlertFeed_LevelSubscriptionReplacesWildcard(t *testing.T) {
	bus := newFakeBus()
	var got received
	feed := newAlertFeed(bus.subscribe, got.relay)
	if err := feed.add(natsadapter.AlertSubjects); err != nil {
		t.Fatal(err)
	}

	red := natsadapter.AlertSubject(domain.RiskRed)
	if err := feed.add(red); err != nil {
		t.Fatal(err)
	}

	bus.publish(red)
	bus.publish(natsadapter.AlertSubject(domain.RiskYellow))

	if len(got.subjects) != 1 || got.subjects[0] != red {
		t.Errorf("expected exactly one red alert, got %v", got.subjects)
	}
	if s := feed.subjects(); len(s) != 1 || s[0] != red {
		t.Errorf("unexpected subjects %v", s)
	}
	if bus.active() != 1 {
		t.Errorf("expected 1 live subscription, got %d", bus.active())
	}
}

func TestAlertFeed_SeveralLevelsThenWildcard(t *testing.T) {
	bus := newFakeBus()
	var got received
	feed := newAlertFeed(bus.subscribe, got.relay)

	red := natsadapter.AlertSubject(domain.RiskRed)
	yellow := natsadapter.AlertSubject(domain.RiskYellow)
	for _, s := range []string{natsadapter.AlertSubjects, red, yellow} {
		if err := feed.add(s); err != nil {
			t.Fatal(err)
		}
	}
	if s := feed.subjects(); len(s) != 2 {
		t.Fatalf("expected red and yellow, got %v", s)
	}

	if err := feed.add(natsadapter.AlertSubjects); err != nil {
		t.Fatal(err)
	}
	bus.publish(red)
	bus.publish(yellow)
	bus.publish(natsadapter.AlertSubject(domain.RiskGreen))

	if len(got.subjects) != 3 {
		t.Errorf("expected each alert once, got %v", got.subjects)
	}
	if bus.active() != 1 {
		t.Errorf("expected only the wildcard subscription, got %d", bus.active())
	}
}

func TestAlertFeed_AddRemoveErrors(t *testing.T) {
	bus := newFakeBus()
	feed := newAlertFeed(bus.subscribe, func(*nats.Msg) {})
	red := natsadapter.AlertSubject(domain.RiskRed)

	if err := feed.add(red); err != nil {
		t.Fatal(err)
	}
	if err := feed.add(red); !errors.Is(err, errAlreadySubscribed) {
		t.Errorf("expected errAlreadySubscribed, got %v", err)
	}
	if err := feed.remove(natsadapter.AlertSubject(domain.RiskGreen)); !errors.Is(err, errNotSubscribed) {
		t.Errorf("expected errNotSubscribed, got %v", err)
	}
	if err := feed.remove(red); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// A failed subscribe keeps the current feed.
	if err := feed.add(natsadapter.AlertSubjects); err != nil {
		t.Fatal(err)
	}
	bus.fail = errors.New("nats down")
	if err := feed.add(red); err == nil {
		t.Error("expected subscribe error")
	}
	if s := feed.subjects(); len(s) != 1 || s[0] != natsadapter.AlertSubjects {
		t.Errorf("expected wildcard to survive a failed subscribe, got %v", s)
	}

	feed.close()
	if bus.active() != 0 {
		t.Errorf("expected no live subscriptions after close, got %d", bus.active())
	}
}
