// Package driver is a websocket RPC client for SurrealDB-compatible
// servers.
//
// A Client multiplexes every call over one connection: a monotonically
// numbered request envelope goes out, and a demultiplexer goroutine
// routes each inbound frame either to the caller waiting on its id or,
// for frames without an id, to the live query subscription it belongs
// to. Session state (namespace and database selection, authentication,
// session variables) changes only after the server acknowledges the
// corresponding call.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is a connection to a server. All methods are safe for
// concurrent use.
type Client struct {
	opts    *Options
	codec   Codec
	log     *slog.Logger
	session *session
	corr    *correlator
	router  *liveRouter

	mu        sync.Mutex
	transport Transport
	closed    bool

	demuxDone chan struct{}
}

// Connect dials the endpoint and starts the frame demultiplexer. When
// the options name a namespace or database, the selection happens
// before Connect returns.
func Connect(ctx context.Context, endpoint string, opts *Options) (*Client, error) {
	o := opts.withDefaults()
	c := &Client{
		opts:      o,
		codec:     o.codec,
		log:       o.logger,
		session:   newSession(),
		corr:      newCorrelator(),
		router:    newLiveRouter(o.liveBuffer, o.logger),
		demuxDone: make(chan struct{}),
	}
	c.session.toConnecting()
	t, err := o.dialer(ctx, endpoint, o.codec, o)
	if err != nil {
		c.session.toDisconnected()
		return nil, err
	}
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()
	c.session.toConnected()
	go c.demux(t)

	if o.namespace != "" || o.database != "" {
		ns, db := Keep(), Keep()
		if o.namespace != "" {
			ns = Named(o.namespace)
		}
		if o.database != "" {
			db = Named(o.database)
		}
		if err := c.Use(ctx, ns, db); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// demux routes inbound frames until the transport ends, then resolves
// every in-flight call, ends every subscription, and resets the session.
func (c *Client) demux(t Transport) {
	for data := range t.Recv() {
		var in inbound
		if err := c.codec.Unmarshal(data, &in); err != nil {
			c.log.Warn("dropping undecodable frame", "err", err)
			continue
		}
		if in.ID != nil {
			if !c.corr.resolve(*in.ID, in) {
				c.log.Debug("dropping reply with no waiter", "id", *in.ID)
			}
			continue
		}
		n, ok := parseNotification(in.Result)
		if !ok {
			c.log.Warn("dropping malformed live notification")
			continue
		}
		c.router.dispatch(n)
	}
	cause := t.Err()
	if cause == nil {
		cause = ErrClosed
	}
	c.corr.failAll(&ConnectionError{Op: "awaiting reply", Cause: cause})
	c.router.closeAll()
	c.session.toDisconnected()
	close(c.demuxDone)
}

// call performs one RPC round trip. Without a context deadline the
// configured default timeout applies. A call that times out abandons
// its reply slot, so a late reply is discarded rather than delivered.
func (c *Client) call(ctx context.Context, method string, params ...any) (any, error) {
	t := c.currentTransport()
	if t == nil || c.session.State() != Connected {
		return nil, ErrNotConnected
	}
	id, ch, err := c.corr.register()
	if err != nil {
		return nil, err
	}
	data, err := c.codec.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		c.corr.drop(id)
		return nil, fmt.Errorf("driver: encoding %s request: %w", method, err)
	}
	start := time.Now()
	if _, has := ctx.Deadline(); !has && c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}
	if err := t.Send(ctx, data); err != nil {
		c.corr.drop(id)
		return nil, &ConnectionError{Op: "sending " + method, Cause: err}
	}
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if res.in.Error != nil {
			return nil, res.in.Error
		}
		return res.in.Result, nil
	case <-ctx.Done():
		c.corr.drop(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method, Elapsed: time.Since(start)}
		}
		return nil, ctx.Err()
	}
}

func (c *Client) currentTransport() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.transport
}

// Use selects the namespace and database subsequent operations run
// against. Each scope independently names a selection, clears it, or
// keeps the current one. The session records the change only after the
// server acknowledges it.
func (c *Client) Use(ctx context.Context, ns, db Scope) error {
	nsVal, nsSet, dbVal, dbSet := c.session.resolveUse(ns, db)
	var nsParam, dbParam any
	if nsSet {
		nsParam = nsVal
	}
	if dbSet {
		dbParam = dbVal
	}
	if _, err := c.call(ctx, "use", nsParam, dbParam); err != nil {
		return err
	}
	c.session.applyUse(nsVal, nsSet, dbVal, dbSet)
	return nil
}

// Credentials identify a principal for SignIn and SignUp. Namespace,
// Database, and Access narrow the scope of the identity; Variables
// carry additional record-access fields.
type Credentials struct {
	Namespace string
	Database  string
	Access    string
	Username  string
	Password  string
	Variables map[string]any
}

func (cr Credentials) params() map[string]any {
	m := make(map[string]any, len(cr.Variables)+5)
	for k, v := range cr.Variables {
		m[k] = v
	}
	if cr.Namespace != "" {
		m["NS"] = cr.Namespace
	}
	if cr.Database != "" {
		m["DB"] = cr.Database
	}
	if cr.Access != "" {
		m["AC"] = cr.Access
	}
	if cr.Username != "" {
		m["user"] = cr.Username
	}
	if cr.Password != "" {
		m["pass"] = cr.Password
	}
	return m
}

// SignIn authenticates with the given credentials and returns the token
// the server issued. The session is marked authenticated only on
// success.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (string, error) {
	res, err := c.call(ctx, "signin", creds.params())
	if err != nil {
		return "", err
	}
	token, _ := res.(string)
	c.session.applyAuth(token)
	return token, nil
}

// SignUp registers a new record-access identity and returns its token.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (string, error) {
	res, err := c.call(ctx, "signup", creds.params())
	if err != nil {
		return "", err
	}
	token, _ := res.(string)
	c.session.applyAuth(token)
	return token, nil
}

// Authenticate resumes a session from a previously issued token.
func (c *Client) Authenticate(ctx context.Context, token string) error {
	if _, err := c.call(ctx, "authenticate", token); err != nil {
		return err
	}
	c.session.applyAuth(token)
	return nil
}

// Invalidate drops the session's authentication without disconnecting.
func (c *Client) Invalidate(ctx context.Context) error {
	if _, err := c.call(ctx, "invalidate"); err != nil {
		return err
	}
	c.session.applyInvalidate()
	return nil
}

// Let defines a session variable available to subsequent queries as
// $name.
func (c *Client) Let(ctx context.Context, name string, value any) error {
	if _, err := c.call(ctx, "let", name, value); err != nil {
		return err
	}
	c.session.applyLet(name, value)
	return nil
}

// Unset removes a session variable.
func (c *Client) Unset(ctx context.Context, name string) error {
	if _, err := c.call(ctx, "unset", name); err != nil {
		return err
	}
	c.session.applyUnset(name)
	return nil
}

// Reset returns the session to its just-connected state: authentication,
// session variables, and the namespace and database selection are all
// cleared, and every live subscription ends. The connection stays up.
func (c *Client) Reset(ctx context.Context) error {
	if _, err := c.call(ctx, "reset"); err != nil {
		return err
	}
	c.session.applyReset()
	c.router.closeAll()
	return nil
}

// Ping checks that the server still answers on this connection.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping")
	return err
}

// Version reports the server's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.call(ctx, "version")
	if err != nil {
		return "", err
	}
	s, _ := res.(string)
	return s, nil
}

// QueryResult is the outcome of one statement in a query batch.
type QueryResult struct {
	Status string
	Time   string
	Result any
}

// Err surfaces a failed statement as an error; successful entries
// return nil.
func (q QueryResult) Err() error {
	if q.Status == "" || q.Status == "OK" {
		return nil
	}
	msg, _ := q.Result.(string)
	if msg == "" {
		msg = "statement failed with status " + q.Status
	}
	return &RemoteError{Message: msg}
}

// Send performs a raw RPC call and returns the decoded result. It is
// the low-level escape hatch the typed methods are built on; prefer
// those when one exists.
func (c *Client) Send(ctx context.Context, method string, params ...any) (any, error) {
	return c.call(ctx, method, params...)
}

// Query runs one or more statements and returns a result per statement.
// A statement-level failure appears in its entry, not as a call error.
func (c *Client) Query(ctx context.Context, statement string, vars map[string]any) ([]QueryResult, error) {
	params := []any{statement}
	if len(vars) > 0 {
		params = append(params, vars)
	}
	res, err := c.call(ctx, "query", params...)
	if err != nil {
		return nil, err
	}
	return parseQueryResults(res)
}

func parseQueryResults(v any) ([]QueryResult, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("driver: unexpected query result shape %T", v)
	}
	out := make([]QueryResult, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("driver: unexpected query entry shape %T", item)
		}
		qr := QueryResult{Result: m["result"]}
		qr.Status, _ = m["status"].(string)
		qr.Time, _ = m["time"].(string)
		out = append(out, qr)
	}
	return out, nil
}

// Live starts a live query on a table. The subscription lasts until ctx
// ends, Kill is called, the server kills it, or the connection closes.
// With diff set, notifications carry patches instead of full records.
func (c *Client) Live(ctx context.Context, table string, diff bool) (*Subscription, error) {
	res, err := c.call(ctx, "live", table, diff)
	if err != nil {
		return nil, err
	}
	raw, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("driver: unexpected live result shape %T", res)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("driver: parsing live query id: %w", err)
	}
	sub := c.router.add(id)
	if ctx.Done() != nil {
		go c.watchLive(ctx, sub)
	}
	return sub, nil
}

func (c *Client) watchLive(ctx context.Context, sub *Subscription) {
	select {
	case <-ctx.Done():
		killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := c.Kill(killCtx, sub.ID())
		if err != nil && !errors.Is(err, ErrNotConnected) && !errors.Is(err, ErrClosed) {
			c.log.Warn("killing live query after context end", "id", sub.ID().String(), "err", err)
		}
	case <-sub.Done():
	}
}

// Kill stops a live query. The local subscription is closed once the
// server confirms. Kills for ids this client never subscribed to are
// still sent, so queries started elsewhere can be stopped too.
func (c *Client) Kill(ctx context.Context, id uuid.UUID) error {
	if _, err := c.call(ctx, "kill", id.String()); err != nil {
		return err
	}
	c.router.remove(id)
	return nil
}

// State reports the connection lifecycle phase.
func (c *Client) State() State {
	return c.session.State()
}

// Namespace returns the acknowledged namespace selection.
func (c *Client) Namespace() (string, bool) {
	return c.session.Namespace()
}

// Database returns the acknowledged database selection.
func (c *Client) Database() (string, bool) {
	return c.session.Database()
}

// Authenticated reports whether the session holds an acknowledged
// identity.
func (c *Client) Authenticated() bool {
	return c.session.Authenticated()
}

// SessionVars returns a copy of the acknowledged session variables.
func (c *Client) SessionVars() map[string]any {
	return c.session.Vars()
}

// Close tears the connection down and waits for the demultiplexer to
// finish, so when it returns every in-flight call has been resolved and
// every subscription closed. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	t := c.transport
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if already || t == nil {
		return nil
	}
	t.Close()
	<-c.demuxDone
	return nil
}
