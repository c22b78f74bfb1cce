package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/safezone/internal/adapters/nats"
	"github.com/samirrijal/safezone/internal/core/domain"
	"github.com/samirrijal/safezone/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to alert levels.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Level  string `json:"level"`  // risk level filter (optional, "" = all)
}

var (
	errAlreadySubscribed = errors.New("already subscribed")
	errNotSubscribed     = errors.New("not subscribed")
)

// alertSubjectFor maps a client level filter onto a NATS subject.
func alertSubjectFor(level string) (string, error) {
	if level == "" {
		return natsadapter.AlertSubjects, nil
	}
	l, err := domain.ParseRiskLevel(level)
	if err != nil {
		return "", err
	}
	if l == domain.RiskNone {
		return "", fmt.Errorf("no alerts are published for level %q", level)
	}
	return natsadapter.AlertSubject(l), nil
}

type alertSubscription interface {
	Unsubscribe() error
}

type alertSubscriber func(subject string, cb nats.MsgHandler) (alertSubscription, error)

// alertFeed tracks the subjects one client listens on. It holds either the
// all-levels wildcard or a set of per-level subjects, never both, so each
// alert is relayed at most once.
type alertFeed struct {
	subscribe alertSubscriber
	relay     nats.MsgHandler
	subs      map[string]alertSubscription
}

func newAlertFeed(subscribe alertSubscriber, relay nats.MsgHandler) *alertFeed {
	return &alertFeed{subscribe: subscribe, relay: relay, subs: make(map[string]alertSubscription)}
}

// add subscribes to subject and drops subscriptions that overlap it.
func (f *alertFeed) add(subject string) error {
	if _, exists := f.subs[subject]; exists {
		return errAlreadySubscribed
	}
	s, err := f.subscribe(subject, f.relay)
	if err != nil {
		return err
	}

	for other, sub := range f.subs {
		if subject == natsadapter.AlertSubjects || other == natsadapter.AlertSubjects {
			_ = sub.Unsubscribe()
			delete(f.subs, other)
		}
	}
	f.subs[subject] = s
	return nil
}

func (f *alertFeed) remove(subject string) error {
	s, exists := f.subs[subject]
	if !exists {
		return errNotSubscribed
	}
	_ = s.Unsubscribe()
	delete(f.subs, subject)
	return nil
}

func (f *alertFeed) subjects() []string {
	out := make([]string, 0, len(f.subs))
	for s := range f.subs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (f *alertFeed) close() {
	for subject, s := range f.subs {
		_ = s.Unsubscribe()
		delete(f.subs, subject)
	}
}

func natsSubscriber(nc *nats.Conn) alertSubscriber {
	return func(subject string, cb nats.MsgHandler) (alertSubscription, error) {
		s, err := nc.Subscribe(subject, cb)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays zone alerts from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","level":"red"}
// New connections receive every level. Subscribing to a level replaces the
// all-levels feed; subscribing with an empty level restores it.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		feed := newAlertFeed(natsSubscriber(nc), func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		defer feed.close()

		if err := feed.add(natsadapter.AlertSubjects); err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, err := alertSubjectFor(m.Level)
			if err != nil {
				_ = writeJSON(map[string]string{"error": "unknown level: " + m.Level})
				continue
			}

			switch m.Action {
			case "subscribe":
				switch err := feed.add(subject); {
				case errors.Is(err, errAlreadySubscribed):
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
				case err != nil:
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
				default:
					_ = writeJSON(map[string]interface{}{"status": "subscribed", "subject": subject, "subjects": feed.subjects()})
				}

			case "unsubscribe":
				if err := feed.remove(subject); err != nil {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = writeJSON(map[string]interface{}{"status": "unsubscribed", "subject": subject, "subjects": feed.subjects()})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
