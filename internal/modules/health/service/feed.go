package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/metrics"
)

const (
	feedSendBuffer = 16
	feedWriteWait  = 5 * time.Second
	feedPingPeriod = 30 * time.Second
)

// FeedEvent: то, что уходит подписчикам ленты. Доказательство не отправляем, только хеш.
type FeedEvent struct {
	ID              string    `json:"id"`
	Policy          string    `json:"policy"`
	ProgramIdentity string    `json:"program_identity"`
	ProofHash       string    `json:"proof_hash"`
	Journal         string    `json:"journal"`
	PnL             *float32  `json:"pnl,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func newFeedEvent(res *prover.Result) FeedEvent {
	r := res.Receipt
	return FeedEvent{
		ID:              r.ID,
		Policy:          r.Policy,
		ProgramIdentity: r.ProgramIdentity,
		ProofHash:       r.ProofHash(),
		Journal:         res.Value.String(),
		PnL:             res.Value.PnL,
		CreatedAt:       r.CreatedAt,
	}
}

// Feed рассылает свежие квитанции всем подключённым websocket-клиентам.
// Медленный клиент, у которого переполнен буфер, отключается.
type Feed struct {
	state    *State
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func NewFeed(state *State) *Feed {
	return &Feed{
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// OnReceipt implements the prover listener.
func (f *Feed) OnReceipt(_ context.Context, res *prover.Result) {
	f.state.TouchReceipt(res.Receipt.CreatedAt)

	msg, err := sonic.Marshal(newFeedEvent(res))
	if err != nil {
		logger.Error("feed: marshal receipt %s: %v", res.Receipt.ID, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			logger.Info("feed: dropping slow client")
			f.removeLocked(c)
		}
	}
}

// Clients is the number of connected subscribers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Info("feed: upgrade: %v", err)
		return
	}

	c := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	metrics.FeedClients.Set(float64(len(f.clients)))
	f.mu.Unlock()

	go f.writeLoop(c)
	f.readLoop(c)
}

// readLoop только ловит закрытие соединения, входящие сообщения игнорируются.
func (f *Feed) readLoop(c *feedClient) {
	defer f.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writeLoop(c *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.remove(c)
				return
			}
		}
	}
}

// Close disconnects every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		f.removeLocked(c)
	}
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(c)
}

func (f *Feed) removeLocked(c *feedClient) {
	if _, ok := f.clients[c]; !ok {
		return
	}
	delete(f.clients, c)
	c.close()
	metrics.FeedClients.Set(float64(len(f.clients)))
}
