package upstream

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds one client per named upstream so route handlers and
// health endpoints share the same breaker state.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds a client. Registering the same name twice is an error;
// two clients for one upstream would mean two independent breakers.
func (r *Registry) Register(client *Client) error {
	if client == nil {
		return fmt.Errorf("upstream: nil client")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[client.name]; exists {
		return fmt.Errorf("upstream: client %q already registered", client.name)
	}
	r.clients[client.name] = client
	return nil
}

// Get returns the client for name, or nil.
func (r *Registry) Get(name string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[name]
}

// GetOrCreate returns the existing client for name or creates, registers
// and returns a new one.
func (r *Registry) GetOrCreate(name string, config Config, opts ...Option) (*Client, error) {
	r.mu.RLock()
	client, exists := r.clients[name]
	r.mu.RUnlock()
	if exists {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if client, exists = r.clients[name]; exists {
		return client, nil
	}

	client, err := NewClient(name, config, opts...)
	if err != nil {
		return nil, err
	}
	r.clients[name] = client
	return client, nil
}

// Names returns the registered upstream names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StatusAll returns a snapshot per registered upstream, sorted by name.
func (r *Registry) StatusAll() []Status {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	statuses := make([]Status, 0, len(clients))
	for _, c := range clients {
		statuses = append(statuses, c.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// ShutdownAll shuts down every registered client. Idempotent.
func (r *Registry) ShutdownAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		c.Shutdown()
	}
}
