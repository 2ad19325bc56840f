package realtime

import "sync"

// Registry maps channel keys to their currently subscribed clients. It is
// pure in-memory bookkeeping, shared by every connection goroutine, so all
// access goes through the mutex. Empty channel entries are pruned as soon as
// their last member leaves.
type Registry struct {
	mu       sync.Mutex
	channels map[string]map[*Client]bool
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[*Client]bool),
	}
}

// Register adds a client to a channel. Registering twice has the effect of
// once.
func (r *Registry) Register(channelKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channelKey]
	if !ok {
		members = make(map[*Client]bool)
		r.channels[channelKey] = members
	}
	members[c] = true
}

// Deregister removes a client from one channel. Removing an absent client is
// a no-op.
func (r *Registry) Deregister(channelKey string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channelKey]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.channels, channelKey)
	}
}

// DeregisterAll removes a client from every channel it belongs to. Called on
// disconnect and when a delivery attempt finds the client dead.
func (r *Registry) DeregisterAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, members := range r.channels {
		delete(members, c)
		if len(members) == 0 {
			delete(r.channels, key)
		}
	}
}

// MembersOf returns a snapshot of the channel's current members.
func (r *Registry) MembersOf(channelKey string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.channels[channelKey]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// ChannelCount reports how many channels currently have members.
func (r *Registry) ChannelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
