package driver

import (
	"log/slog"
	"time"
)

// Options configures a Client. Create with NewOptions and chain the
// setters; a nil *Options means all defaults.
type Options struct {
	codec            Codec
	timeout          time.Duration
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	liveBuffer       int
	logger           *slog.Logger
	dialer           Dialer
	namespace        string
	database         string
}

// NewOptions creates options with default values: the JSON codec, a ten
// second call timeout, and the default live buffer size.
func NewOptions() *Options {
	return &Options{
		codec:            JSONCodec{},
		timeout:          10 * time.Second,
		handshakeTimeout: 10 * time.Second,
		writeTimeout:     10 * time.Second,
		liveBuffer:       DefaultLiveBuffer,
		logger:           slog.Default(),
		dialer:           DialWebSocket,
	}
}

// SetCodec selects the wire format.
func (o *Options) SetCodec(c Codec) *Options {
	o.codec = c
	return o
}

// SetTimeout bounds each RPC call that has no context deadline of its
// own. Zero disables the default bound.
func (o *Options) SetTimeout(d time.Duration) *Options {
	o.timeout = d
	return o
}

// SetHandshakeTimeout bounds the websocket handshake.
func (o *Options) SetHandshakeTimeout(d time.Duration) *Options {
	o.handshakeTimeout = d
	return o
}

// SetWriteTimeout bounds each frame write.
func (o *Options) SetWriteTimeout(d time.Duration) *Options {
	o.writeTimeout = d
	return o
}

// SetLiveBuffer sets the per-subscription notification buffer size.
func (o *Options) SetLiveBuffer(n int) *Options {
	o.liveBuffer = n
	return o
}

// SetLogger routes the client's structured log output.
func (o *Options) SetLogger(l *slog.Logger) *Options {
	o.logger = l
	return o
}

// SetDialer replaces the websocket dialer, mainly for tests and custom
// transports.
func (o *Options) SetDialer(d Dialer) *Options {
	o.dialer = d
	return o
}

// SetNamespace selects a namespace right after connecting.
func (o *Options) SetNamespace(ns string) *Options {
	o.namespace = ns
	return o
}

// SetDatabase selects a database right after connecting.
func (o *Options) SetDatabase(db string) *Options {
	o.database = db
	return o
}

func (o *Options) clone() *Options {
	c := *o
	return &c
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		return NewOptions()
	}
	c := o.clone()
	if c.codec == nil {
		c.codec = JSONCodec{}
	}
	if c.liveBuffer <= 0 {
		c.liveBuffer = DefaultLiveBuffer
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.dialer == nil {
		c.dialer = DialWebSocket
	}
	return c
}
