// Package registry keeps the two indices of live clients: transport handle
// to Client, and identity id to Identity with its set of Clients. Both are
// guarded by a single mutex and always updated together.
//
// An Identity whose last Client detaches is evicted immediately.
package registry

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/google/uuid"
)

// ErrPeerRegistered is returned by Register when the transport already has a
// client.
var ErrPeerRegistered = errors.New("peer already registered")

// newID is a test seam for identity id generation.
var newID = uuid.NewString

// Identity is a logical user that may be connected through several Clients.
type Identity struct {
	ID  string
	Pin string

	// guarded by Registry.mu
	clients map[*Client]struct{}
}

type Registry struct {
	mu        sync.Mutex
	pinLength int
	byPeer    map[Peer]*Client
	byID      map[string]*Identity
}

// New returns an empty registry whose temporary identities get pins of
// pinLength digits.
func New(pinLength int) *Registry {
	return &Registry{
		pinLength: pinLength,
		byPeer:    make(map[Peer]*Client),
		byID:      make(map[string]*Identity),
	}
}

// RegisterIdentity adds a new identity. It fails with
// common.ErrDuplicateIdentity when id is taken.
func (r *Registry) RegisterIdentity(id, pin string) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerIdentityLocked(id, pin)
}

func (r *Registry) registerIdentityLocked(id, pin string) (*Identity, error) {
	if _, ok := r.byID[id]; ok {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateIdentity, id)
	}

	u := &Identity{ID: id, Pin: pin, clients: make(map[*Client]struct{})}
	r.byID[id] = u

	return u, nil
}

// GetByName looks up an identity by id.
func (r *Registry) GetByName(id string) (*Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	return u, ok
}

// RemoveIdentity evicts an identity. It fails with
// common.ErrIdentityNotFound when id is unknown.
func (r *Registry) RemoveIdentity(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeIdentityLocked(id)
}

func (r *Registry) removeIdentityLocked(id string) error {
	u, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrIdentityNotFound, id)
	}
	delete(r.byID, id)
	for c := range u.clients {
		if c.identity == u {
			c.identity = nil
		}
	}
	u.clients = make(map[*Client]struct{})
	return nil
}

// CreateTemporaryUser registers an identity with a fresh random id and a
// random numeric pin.
func (r *Registry) CreateTemporaryUser() (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createTemporaryLocked()
}

func (r *Registry) createTemporaryLocked() (*Identity, error) {
	pin, err := common.RandomDigits(r.pinLength)
	if err != nil {
		return nil, fmt.Errorf("generate pin: %w", err)
	}

	id := newID()
	for r.byID[id] != nil {
		id = newID()
	}

	return r.registerIdentityLocked(id, pin)
}

// AddClient associates client with identity, detaching it from any identity
// it belonged to before.
func (r *Registry) AddClient(identity *Identity, client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addClientLocked(identity, client)
}

func (r *Registry) addClientLocked(identity *Identity, client *Client) error {
	if r.byID[identity.ID] != identity {
		return fmt.Errorf("%w: %s", common.ErrIdentityNotFound, identity.ID)
	}

	if old := client.identity; old != nil && old != identity {
		r.removeClientLocked(old, client)
	}

	identity.clients[client] = struct{}{}
	client.identity = identity

	return nil
}

// RemoveClient dissociates client from identity. Removing the last client
// evicts the identity.
func (r *Registry) RemoveClient(identity *Identity, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeClientLocked(identity, client)
}

func (r *Registry) removeClientLocked(identity *Identity, client *Client) {
	if _, ok := identity.clients[client]; !ok {
		return
	}

	delete(identity.clients, client)
	if client.identity == identity {
		client.identity = nil
	}

	if len(identity.clients) == 0 && r.byID[identity.ID] == identity {
		_ = r.removeIdentityLocked(identity.ID)
	}
}

// Register creates a Client for peer, indexes it and adds it to identity.
func (r *Registry) Register(peer Peer, identity *Identity) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(peer, identity)
}

func (r *Registry) registerLocked(peer Peer, identity *Identity) (*Client, error) {
	if _, ok := r.byPeer[peer]; ok {
		return nil, ErrPeerRegistered
	}

	c := &Client{peer: peer, registry: r}
	if err := r.addClientLocked(identity, c); err != nil {
		return nil, err
	}
	r.byPeer[peer] = c
	if b, ok := peer.(ClientBinder); ok {
		b.BindClient(c)
	}

	return c, nil
}

// Connect registers peer under a new temporary identity in one step, so the
// identity is never observable without a client.
func (r *Registry) Connect(peer Peer) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.createTemporaryLocked()
	if err != nil {
		return nil, err
	}

	c, err := r.registerLocked(peer, u)
	if err != nil {
		_ = r.removeIdentityLocked(u.ID)
		return nil, err
	}

	return c, nil
}

// GetByTransport looks up the client registered for peer.
func (r *Registry) GetByTransport(peer Peer) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPeer[peer]
	return c, ok
}

// Unregister drops the client of peer from both indices. It reports whether
// a client was registered.
func (r *Registry) Unregister(peer Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byPeer[peer]
	if !ok {
		return false
	}
	delete(r.byPeer, peer)

	if u := c.identity; u != nil {
		r.removeClientLocked(u, c)
	}

	return true
}

// SwitchIdentity moves client to the identity id after checking pin. The
// identity it leaves is evicted if it has no clients left.
func (r *Registry) SwitchIdentity(client *Client, id, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrIdentityNotFound, id)
	}

	if subtle.ConstantTimeCompare([]byte(target.Pin), []byte(pin)) != 1 {
		return common.ErrorUnauthorized
	}

	return r.addClientLocked(target, client)
}

// Clients returns a snapshot of the clients of identity.
func (r *Registry) Clients(identity *Identity) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Client, 0, len(identity.clients))
	for c := range identity.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of identities and clients currently registered.
func (r *Registry) Len() (identities, clients int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), len(r.byPeer)
}
