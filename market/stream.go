package market

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/synapsestrike/tradeengine/model"
)

// StreamSubscriber pushes live quotes into the Provider's cache over a
// websocket connection, bypassing the poll-and-TTL path for symbols the
// venue marks streamable.
type StreamSubscriber struct {
	URL      string
	Provider *Provider

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// NewStreamSubscriber builds a subscriber that will push parsed quotes
// into provider's cache once Run is started.
func NewStreamSubscriber(url string, provider *Provider) *StreamSubscriber {
	return &StreamSubscriber{URL: url, Provider: provider, done: make(chan struct{})}
}

type streamQuoteMessage struct {
	Symbol string `json:"symbol"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	Last   string `json:"last"`
}

// Run dials the stream and pushes quotes until Close is called or the
// connection drops; callers are expected to reconnect on error.
func (s *StreamSubscriber) Run() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.URL, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	for {
		select {
		case <-s.done:
			return conn.Close()
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg streamQuoteMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		s.Provider.PushQuote(toQuote(msg))
	}
}

func toQuote(msg streamQuoteMessage) model.Quote {
	q := model.Quote{Symbol: msg.Symbol, Timestamp: time.Now()}
	if v, err := strconv.ParseFloat(msg.Bid, 64); err == nil {
		q.Bid = &v
	}
	if v, err := strconv.ParseFloat(msg.Ask, 64); err == nil {
		q.Ask = &v
	}
	if v, err := strconv.ParseFloat(msg.Last, 64); err == nil {
		q.Last = &v
	}
	return q
}

// Close stops Run's read loop and closes the underlying connection.
func (s *StreamSubscriber) Close() error {
	close(s.done)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
