package driver

import "sync"

// State is the lifecycle phase of a connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Scope selects a namespace or database for Use. Named picks one, None
// clears the current selection, and the zero value keeps it.
type Scope struct {
	name string
	mode scopeMode
}

type scopeMode int

const (
	scopeKeep scopeMode = iota
	scopeName
	scopeNone
)

// Named selects the namespace or database with the given name.
func Named(name string) Scope {
	return Scope{name: name, mode: scopeName}
}

// None clears the current selection.
func None() Scope {
	return Scope{mode: scopeNone}
}

// Keep retains the current selection. It is the zero value, spelled out.
func Keep() Scope {
	return Scope{}
}

// resolve applies the scope against the current value, returning the new
// value and whether one is selected at all.
func (s Scope) resolve(current string, currentSet bool) (string, bool) {
	switch s.mode {
	case scopeName:
		return s.name, true
	case scopeNone:
		return "", false
	default:
		return current, currentSet
	}
}

// session tracks what the server currently believes about this
// connection. Every mutation happens only after the server has
// acknowledged the corresponding RPC, so a failed call leaves the
// session exactly as it was.
type session struct {
	mu     sync.Mutex
	state  State
	ns     string
	nsSet  bool
	db     string
	dbSet  bool
	token  string
	authed bool
	vars   map[string]any
}

func newSession() *session {
	return &session{vars: make(map[string]any)}
}

func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Namespace returns the acknowledged namespace selection.
func (s *session) Namespace() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns, s.nsSet
}

// Database returns the acknowledged database selection.
func (s *session) Database() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, s.dbSet
}

// Token returns the current authentication token, if any.
func (s *session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.authed
}

// Authenticated reports whether the session holds a server-acknowledged
// identity.
func (s *session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// Vars returns a copy of the acknowledged session variables.
func (s *session) Vars() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

func (s *session) toConnecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Connecting
}

func (s *session) toConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Connected
}

// toDisconnected drops every piece of per-connection state.
func (s *session) toDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Disconnected
	s.ns, s.nsSet = "", false
	s.db, s.dbSet = "", false
	s.token, s.authed = "", false
	s.vars = make(map[string]any)
}

// resolveUse computes the selections a Use call should send, without
// mutating anything.
func (s *session) resolveUse(ns, db Scope) (nsVal string, nsSet bool, dbVal string, dbSet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nsVal, nsSet = ns.resolve(s.ns, s.nsSet)
	dbVal, dbSet = db.resolve(s.db, s.dbSet)
	return nsVal, nsSet, dbVal, dbSet
}

func (s *session) applyUse(nsVal string, nsSet bool, dbVal string, dbSet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ns, s.nsSet = nsVal, nsSet
	s.db, s.dbSet = dbVal, dbSet
}

func (s *session) applyAuth(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.authed = true
}

func (s *session) applyInvalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.authed = false
}

func (s *session) applyLet(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

func (s *session) applyUnset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, name)
}

// applyReset returns the session to its just-connected shape.
func (s *session) applyReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ns, s.nsSet = "", false
	s.db, s.dbSet = "", false
	s.token, s.authed = "", false
	s.vars = make(map[string]any)
}
