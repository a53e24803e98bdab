// Package social is the signed-in user's realtime link to the user service:
// online status, unread chat counts, and one personal chat at a time. Unlike
// the game server, the user service speaks bare JSON objects.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/naveenspark/pong/pkg/domain"
)

var (
	// ErrClosed is returned when writing to a stream that is not open.
	ErrClosed = errors.New("stream not open")
	// ErrNoUsername is returned by Start without a username to announce.
	ErrNoUsername = errors.New("social: username required")
	// ErrEmptyMessage is returned by SendChat for blank messages.
	ErrEmptyMessage = errors.New("social: message cannot be empty")
)

// Hub owns the presence, notification and chat streams.
type Hub struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
	logger  *log.Logger

	mu       sync.Mutex
	username string
	presence *stream
	notify   *stream
	chat     *stream
	chatPeer int
	onStatus []func(domain.StatusUpdate)
	onChat   []func(domain.ChatMessage)
	onUnread []func(int)
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used for stream lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(h *Hub) { h.dialer = d }
}

// NewHub creates a hub for the user service websocket root baseURL
// (e.g. ws://localhost:8000/ws) authenticated with token.
func NewHub(baseURL, token string, opts ...Option) *Hub {
	h := &Hub{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  websocket.DefaultDialer,
		logger:  log.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// OnStatus registers fn for online-status broadcasts.
func (h *Hub) OnStatus(fn func(domain.StatusUpdate)) {
	h.mu.Lock()
	h.onStatus = append(h.onStatus, fn)
	h.mu.Unlock()
}

// OnChat registers fn for messages on the open chat.
func (h *Hub) OnChat(fn func(domain.ChatMessage)) {
	h.mu.Lock()
	h.onChat = append(h.onChat, fn)
	h.mu.Unlock()
}

// OnUnread registers fn for unread-count updates.
func (h *Hub) OnUnread(fn func(int)) {
	h.mu.Lock()
	h.onUnread = append(h.onUnread, fn)
	h.mu.Unlock()
}

func (h *Hub) header() http.Header {
	hd := http.Header{}
	if h.token != "" {
		hd.Set("Authorization", "Bearer "+h.token)
	}
	return hd
}

func (h *Hub) newStream(name, path string, onMessage func([]byte)) *stream {
	return &stream{
		name:      name,
		url:       h.baseURL + path,
		header:    h.header(),
		dialer:    h.dialer,
		logger:    h.logger,
		onMessage: onMessage,
	}
}

// Start opens the online-status stream and announces username as online,
// then opens the unread-count stream. A failing unread stream is logged and
// does not fail Start. Start is a no-op while presence is open.
func (h *Hub) Start(ctx context.Context, username string) error {
	if username == "" {
		return ErrNoUsername
	}
	h.mu.Lock()
	if h.presence != nil && h.presence.connected() {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	presence := h.newStream("presence", "/online/?token="+url.QueryEscape(h.token), h.handleStatus)
	if err := presence.open(ctx); err != nil {
		return err
	}
	if err := presence.send(domain.PresenceSignal{Username: username, Type: domain.PresenceOpen}); err != nil {
		presence.close()
		return err
	}

	notify := h.newStream("notifications", "/notify/", h.handleUnread)
	if err := notify.open(ctx); err != nil {
		notify = nil
	}

	h.mu.Lock()
	h.username = username
	h.presence = presence
	h.notify = notify
	h.mu.Unlock()
	return nil
}

// Online reports whether the presence stream is open.
func (h *Hub) Online() bool {
	h.mu.Lock()
	p := h.presence
	h.mu.Unlock()
	return p != nil && p.connected()
}

// OpenChat switches the personal chat to peerID, closing any previous chat.
func (h *Hub) OpenChat(ctx context.Context, peerID int) error {
	if peerID <= 0 {
		return fmt.Errorf("social: invalid chat peer %d", peerID)
	}
	h.CloseChat()

	chat := h.newStream("chat", "/chat/"+strconv.Itoa(peerID)+"/", h.handleChat)
	if err := chat.open(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.chat = chat
	h.chatPeer = peerID
	h.mu.Unlock()
	return nil
}

// ChatPeer returns the user id of the open chat, or 0.
func (h *Hub) ChatPeer() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chatPeer
}

// SendChat writes m to the open chat. The server echoes it back to every
// participant, the sender included.
func (h *Hub) SendChat(m domain.ChatMessage) error {
	if strings.TrimSpace(m.Message) == "" {
		return ErrEmptyMessage
	}
	h.mu.Lock()
	chat := h.chat
	h.mu.Unlock()
	if chat == nil {
		return fmt.Errorf("social: send chat: %w", ErrClosed)
	}
	return chat.send(m)
}

// CloseChat closes the open chat, if any.
func (h *Hub) CloseChat() {
	h.mu.Lock()
	chat := h.chat
	h.chat = nil
	h.chatPeer = 0
	h.mu.Unlock()
	if chat != nil {
		chat.close()
	}
}

// Stop announces the user as offline and closes every stream.
func (h *Hub) Stop() {
	h.CloseChat()

	h.mu.Lock()
	presence, notify, username := h.presence, h.notify, h.username
	h.presence, h.notify = nil, nil
	h.mu.Unlock()

	if presence != nil {
		if err := presence.send(domain.PresenceSignal{Username: username, Type: domain.PresenceClose}); err != nil {
			h.logger.Printf("presence: %v", err)
		}
		presence.close()
	}
	if notify != nil {
		notify.close()
	}
}

func (h *Hub) handleStatus(data []byte) {
	var u domain.StatusUpdate
	if err := json.Unmarshal(data, &u); err != nil || u.Username == "" {
		h.logger.Printf("presence: bad message: %s", data)
		return
	}
	h.mu.Lock()
	fns := append(([]func(domain.StatusUpdate))(nil), h.onStatus...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (h *Hub) handleChat(data []byte) {
	var m domain.ChatMessage
	if err := json.Unmarshal(data, &m); err != nil {
		h.logger.Printf("chat: bad message: %v", err)
		return
	}
	h.mu.Lock()
	fns := append(([]func(domain.ChatMessage))(nil), h.onChat...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

func (h *Hub) handleUnread(data []byte) {
	var c domain.UnreadCount
	if err := json.Unmarshal(data, &c); err != nil {
		h.logger.Printf("notifications: bad message: %v", err)
		return
	}
	h.mu.Lock()
	fns := append(([]func(int))(nil), h.onUnread...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(c.Count)
	}
}
