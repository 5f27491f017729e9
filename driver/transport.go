package driver

import "context"

// Transport moves encoded frames between client and server. Send may be
// called from any goroutine. Recv yields inbound frames until the
// connection ends, then is closed; after that Err reports the terminal
// failure, or nil for a deliberate close.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Recv() <-chan []byte
	Close() error
	Err() error
}

// Dialer opens a Transport to an endpoint. Clients use the websocket
// dialer unless the options install another one.
type Dialer func(ctx context.Context, endpoint string, codec Codec, opts *Options) (Transport, error)
