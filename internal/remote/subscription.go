package remote

import (
	"fmt"
	"net/http"
	"net/url"
	gosync "sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/mcutler/reeldeck/internal/logger"
	"github.com/mcutler/reeldeck/internal/sync"
)

const (
	maxReconnectInterval = 30 * time.Second
	wireEventSnapshot    = "snapshot"
	wireEventGone        = "gone"
)

// wireEvent is one push message on the watch channel
type wireEvent struct {
	Type     string             `json:"type"`
	Snapshot *sync.ListSnapshot `json:"snapshot,omitempty"`
}

// subscription is one open websocket watch on a remote list document.
// A single reader goroutine delivers events in receipt order and reconnects
// with exponential backoff on transient drops.
type subscription struct {
	docID   string
	wsURL   string
	onEvent func(sync.ListEvent)

	mu     gosync.Mutex
	conn   *websocket.Conn
	done   chan struct{}
	closed bool
}

// Subscribe opens a push subscription to a remote list document. Events are
// delivered serially from one goroutine; a "gone" message is terminal and
// stops the reconnect loop.
func (c *Client) Subscribe(docID string, onEvent func(sync.ListEvent)) (sync.Subscription, error) {
	if c.wsBaseURL == "" {
		return nil, fmt.Errorf("%w: websocket base URL not configured", sync.ErrRemoteSync)
	}

	s := &subscription{
		docID:   docID,
		wsURL:   c.wsBaseURL + "/v1/lists/" + url.PathEscape(docID) + "/watch",
		onEvent: onEvent,
		done:    make(chan struct{}),
	}

	go s.run()
	return s, nil
}

// run owns the connect/read/reconnect loop
func (s *subscription) run() {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = maxReconnectInterval
	policy.MaxElapsedTime = 0 // retry until closed

	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone) {
				// Document is gone; terminal, no point reconnecting
				s.deliver(sync.ListEvent{Gone: true})
				return
			}

			wait := policy.NextBackOff()
			logger.Log.Warn().
				Err(err).
				Str("remote_doc_id", s.docID).
				Dur("retry_in", wait).
				Msg("Watch connection failed, retrying")

			select {
			case <-time.After(wait):
				continue
			case <-s.done:
				return
			}
		}

		if !s.setConn(conn) {
			_ = conn.Close()
			return
		}
		policy.Reset()

		if terminal := s.readLoop(conn); terminal {
			return
		}
	}
}

// readLoop decodes push messages until the connection drops.
// Returns true when the subscription should not reconnect.
func (s *subscription) readLoop(conn *websocket.Conn) bool {
	for {
		var event wireEvent
		if err := conn.ReadJSON(&event); err != nil {
			select {
			case <-s.done:
				return true
			default:
			}
			logger.Log.Debug().
				Err(err).
				Str("remote_doc_id", s.docID).
				Msg("Watch connection dropped")
			return false
		}

		switch event.Type {
		case wireEventSnapshot:
			s.deliver(sync.ListEvent{Snapshot: event.Snapshot})
		case wireEventGone:
			s.deliver(sync.ListEvent{Gone: true})
			return true
		}
	}
}

func (s *subscription) deliver(event sync.ListEvent) {
	select {
	case <-s.done:
	default:
		s.onEvent(event)
	}
}

// setConn records the live connection; returns false if already closed
func (s *subscription) setConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

// Close terminates the subscription and its reconnect loop
func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
