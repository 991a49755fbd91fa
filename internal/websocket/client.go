package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/feed"
	"github.com/dukerupert/kinship/internal/model"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one live connection. It owns the account's session and keeps
// family-scoped subscriptions pointed at the session's current family.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	send    chan []byte
	syncer  *feed.Synchronizer
	session *auth.Session
	logger  *slog.Logger

	mu     sync.Mutex
	family []feed.Disposer
}

func NewClient(hub *Hub, conn *ws.Conn, syncer *feed.Synchronizer, session *auth.Session, logger *slog.Logger) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		syncer:  syncer,
		session: session,
		logger:  logger,
	}
}

// Run registers the client, subscribes it, starts the write pump, and runs
// the read pump. It blocks until the connection is closed, then tears every
// subscription down.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := c.subscribe()
	defer stop()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// subscribe starts the account subscription and the family ones, and returns
// a function that ends them all.
func (c *Client) subscribe() func() {
	unhook := c.session.OnSessionChange(func(prev, next auth.AuthContext) {
		if prev.FamilyID != next.FamilyID {
			c.logger.Info("session family changed", "account_id", next.AccountID, "from", prev.FamilyID, "to", next.FamilyID)
			c.retarget(next)
		}
	})

	c.retarget(c.session.Current())

	accountID := c.session.Current().AccountID
	disposeAccount := c.syncer.SubscribeAccount(accountID, func(a *model.Account) {
		c.enqueue(FrameAccount, a)
		if a != nil {
			c.session.Update(auth.FromAccount(a))
		}
	})

	return func() {
		unhook()
		disposeAccount()
		c.mu.Lock()
		c.disposeFamily()
		c.mu.Unlock()
	}
}

// retarget replaces the family subscriptions with ones for ac's family. The
// old subscriptions are fully closed first, so no stale frame follows.
func (c *Client) retarget(ac auth.AuthContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposeFamily()
	if ac.FamilyID == "" {
		return
	}
	c.family = []feed.Disposer{
		c.syncer.SubscribePosts(ac.FamilyID, func(posts []model.Post) {
			c.enqueue(FramePosts, posts)
		}),
		c.syncer.SubscribeNotifications(ac.FamilyID, ac.AccountID, func(notes []model.Notification) {
			c.enqueue(FrameNotifications, notes)
		}),
		c.syncer.SubscribeLeaderboard(ac.FamilyID, func(board []model.LeaderboardEntry) {
			c.enqueue(FrameLeaderboard, board)
		}),
	}
}

// disposeFamily must be called with mu held.
func (c *Client) disposeFamily() {
	for _, dispose := range c.family {
		dispose()
	}
	c.family = nil
}

// enqueue queues a frame without blocking. A full buffer drops the frame;
// the next snapshot of the same collection supersedes it anyway.
func (c *Client) enqueue(frameType string, data any) {
	msg, err := encodeFrame(frameType, data)
	if err != nil {
		c.logger.Error("encode frame", "type", frameType, "error", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, frame dropped", "type", frameType, "account_id", c.session.Current().AccountID)
	}
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
