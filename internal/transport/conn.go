package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"
)

// Conn is one live channel to the controller. *websocket.Conn satisfies it.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens channels.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials the controller over WebSocket.
type WebSocketDialer struct {
	HTTPClient *http.Client
	HTTPHeader http.Header
}

// Dial opens a WebSocket channel.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: d.HTTPHeader,
	})
	if err != nil {
		return nil, err
	}
	// Inbound payloads carry whole HTML fragments.
	ws.SetReadLimit(-1)
	return ws, nil
}

// ChannelURL derives the channel endpoint from the page URL: same host and
// port, the page path with "ws" appended, wss for https pages and ws
// otherwise. Query and fragment are dropped.
func ChannelURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing page url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("page url %q has no host", pageURL)
	}
	scheme := "ws"
	switch u.Scheme {
	case "https", "wss":
		scheme = "wss"
	case "http", "ws":
	default:
		return "", fmt.Errorf("page url %q: unsupported scheme %q", pageURL, u.Scheme)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return scheme + "://" + u.Host + path + "ws", nil
}
