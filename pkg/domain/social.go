package domain

// Connection types sent on the online-status channel.
const (
	PresenceOpen  = "open"
	PresenceClose = "close"
)

// PresenceSignal announces that a user opened or closed their session.
type PresenceSignal struct {
	Username string `json:"username"`
	Type     string `json:"type"`
}

// StatusUpdate is broadcast by the user service when someone goes on or off line.
type StatusUpdate struct {
	Username     string `json:"username"`
	OnlineStatus bool   `json:"online_status"`
}

// ChatMessage is one line of a personal chat. Receiver is only set on
// outgoing messages; the server echoes the message back without it.
type ChatMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Receiver string `json:"receiver,omitempty"`
}

// UnreadCount is the number of unseen chat messages for the signed-in user.
type UnreadCount struct {
	Count int `json:"count"`
}
