// Package ws implements transport.Transport over a websocket JSON protocol.
// Every request carries a req_id; the single read loop routes responses back
// to their callers and fans subscription messages out to the balance channel.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/internal/id"
	"github.com/tradecore/client/landing"
	"github.com/tradecore/client/transport"
)

const (
	dialTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// apiError is the error object the backend embeds in a response envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope is the part of every inbound message the read loop needs for
// routing. The method-specific payload stays raw until the caller decodes it.
type envelope struct {
	ReqID   string          `json:"req_id,omitempty"`
	MsgType string          `json:"msg_type"`
	Error   *apiError       `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is a websocket transport. Construct with New, call Connect before
// use and Close when done. Safe for concurrent calls.
type Client struct {
	url string
	log zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connCtx   context.Context
	cancel    context.CancelFunc
	pending   map[string]chan envelope
	balanceCh chan transport.BalanceMessage
	closed    bool
}

// New returns an unconnected client for the given endpoint URL.
func New(url string, log zerolog.Logger) *Client {
	return &Client{
		url:     url,
		log:     log.With().Str("component", "ws_transport").Logger(),
		pending: make(map[string]chan envelope),
	}
}

// Connect dials the endpoint and starts the read loop. Calling Connect on a
// live client is an error; after a connection loss it may be called again.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return errors.New("ws: already connected")
	}
	if c.closed {
		return errors.New("ws: client is closed")
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return errors.Wrapf(err, "ws: dialing %s", c.url)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancel = cancel
	go c.readLoop(connCtx, conn)

	c.log.Info().Str("url", c.url).Msg("connected")
	return nil
}

// Close tears the connection down and fails every pending call. The client
// cannot be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.teardownLocked()
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		return errors.Wrap(err, "ws: closing connection")
	}
	return nil
}

// teardownLocked drops the connection state, unblocks pending callers and
// ends the balance subscription.
func (c *Client) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.conn = nil
	c.connCtx = nil
	for reqID, ch := range c.pending {
		close(ch)
		delete(c.pending, reqID)
	}
	if c.balanceCh != nil {
		close(c.balanceCh)
		c.balanceCh = nil
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.teardownLocked()
		}
		c.mu.Unlock()
		c.log.Info().Msg("read loop stopped")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				c.log.Debug().Msg("connection closed")
			} else {
				c.log.Error().Err(err).Msg("read failed")
			}
			return
		}
		if msgType != websocket.MessageText {
			c.log.Debug().Int("type", int(msgType)).Msg("ignoring non-text message")
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Error().Err(err).Str("message", string(data)).Msg("unparseable message")
			continue
		}
		c.dispatch(env)
	}
}

// dispatch routes one inbound envelope: responses go to the pending caller,
// balance subscription pushes go to the balance channel.
func (c *Client) dispatch(env envelope) {
	c.mu.Lock()
	if ch, ok := c.pending[env.ReqID]; ok {
		delete(c.pending, env.ReqID)
		c.mu.Unlock()
		ch <- env
		return
	}
	balCh := c.balanceCh
	c.mu.Unlock()

	if env.MsgType == "balance" && balCh != nil {
		var msg transport.BalanceMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			c.log.Error().Err(err).Msg("bad balance push")
			return
		}
		select {
		case balCh <- msg:
		default:
			c.log.Warn().Msg("balance consumer is slow, dropping push")
		}
		return
	}
	c.log.Debug().Str("msg_type", env.MsgType).Str("req_id", env.ReqID).Msg("unroutable message")
}

// call sends one request and decodes the matching response payload into out.
// The request body must already contain the method fields; call adds req_id.
func (c *Client) call(ctx context.Context, method string, body map[string]any, out any) error {
	reqID := id.New()
	body["req_id"] = reqID
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "ws: encoding %s request", method)
	}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return errors.New("ws: not connected")
	}
	respCh := make(chan envelope, 1)
	c.pending[reqID] = respCh
	c.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	err = conn.Write(writeCtx, websocket.MessageText, data)
	cancel()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return errors.Wrapf(err, "ws: sending %s request", method)
	}

	select {
	case env, ok := <-respCh:
		if !ok {
			return errors.Errorf("ws: connection lost awaiting %s response", method)
		}
		if env.Error != nil {
			return apiErrorFor(method, env.Error)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return errors.Wrapf(err, "ws: decoding %s response", method)
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return errors.Wrapf(ctx.Err(), "ws: awaiting %s response", method)
	}
}

// apiErrorFor maps a backend error object to the transport error taxonomy.
// Credential rejections become AuthError so the session core can treat them
// as fatal to the operation without retrying.
func apiErrorFor(method string, e *apiError) error {
	if method == "authorize" || e.Code == "InvalidToken" || e.Code == "AuthorizationRequired" {
		return &transport.AuthError{Code: e.Code, Message: e.Message}
	}
	return errors.Errorf("ws: %s failed: %s (%s)", method, e.Message, e.Code)
}

func (c *Client) Authorize(ctx context.Context, token string) (*transport.AuthorizeResult, error) {
	var res transport.AuthorizeResult
	if err := c.call(ctx, "authorize", map[string]any{"authorize": token}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) LandingCompany(ctx context.Context, residence string) (*landing.Config, error) {
	var cfg landing.Config
	if err := c.call(ctx, "landing_company", map[string]any{"landing_company": residence}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) PlatformAccounts(ctx context.Context, p account.Platform) ([]transport.PlatformAccount, error) {
	var list struct {
		Accounts []transport.PlatformAccount `json:"accounts"`
	}
	body := map[string]any{"platform_accounts": 1, "platform": string(p)}
	if err := c.call(ctx, "platform_accounts", body, &list); err != nil {
		return nil, err
	}
	return list.Accounts, nil
}

// SubscribeBalance requests balance pushes for all accounts. The returned
// channel closes when ctx ends or the connection drops; only one
// subscription is live at a time and a new one replaces the previous.
func (c *Client) SubscribeBalance(ctx context.Context) (<-chan transport.BalanceMessage, error) {
	var first transport.BalanceMessage
	body := map[string]any{"balance": 1, "subscribe": 1, "account": "all"}
	if err := c.call(ctx, "balance", body, &first); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.balanceCh != nil {
		close(c.balanceCh)
	}
	ch := make(chan transport.BalanceMessage, 16)
	c.balanceCh = ch
	connCtx := c.connCtx
	c.mu.Unlock()

	// Initial snapshot arrives as the subscribe response, not as a push.
	ch <- first

	go func() {
		select {
		case <-ctx.Done():
		case <-connCtx.Done():
			return // teardown already closed the channel
		}
		c.mu.Lock()
		if c.balanceCh == ch {
			close(ch)
			c.balanceCh = nil
		}
		c.mu.Unlock()
	}()
	return ch, nil
}

func (c *Client) TopUpDemo(ctx context.Context) (string, error) {
	var res struct {
		Amount string `json:"amount"`
	}
	if err := c.call(ctx, "topup_virtual", map[string]any{"topup_virtual": 1}, &res); err != nil {
		return "", err
	}
	return res.Amount, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, "logout", map[string]any{"logout": 1}, nil)
}

var _ transport.Transport = (*Client)(nil)
