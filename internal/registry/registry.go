package registry

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/meshboot/internal/topology"
)

// ErrNoFactory is returned when a role has nothing registered.
var ErrNoFactory = errors.New("no factory registered")

// Module is the interface that all node modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

type namedRelay struct {
	name    string
	factory RelayFactory
}

type namedTerminus struct {
	name    string
	factory TerminusFactory
}

// Registry holds the constructors for a single application instance.
type Registry struct {
	relays  []namedRelay
	ingress []IngressFactory
	termini []namedTerminus
	names   map[topology.Role]map[string]struct{}
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		names: map[topology.Role]map[string]struct{}{
			topology.RoleRelay:    {},
			topology.RoleIngress:  {},
			topology.RoleTerminus: {},
		},
	}
}

// Install registers every module in order.
func (r *Registry) Install(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

func (r *Registry) claim(role topology.Role, name string) {
	if _, exists := r.names[role][name]; exists {
		panic(fmt.Sprintf("%s factory with name '%s' already registered", role, name))
	}
	r.names[role][name] = struct{}{}
}

// RelayNames lists the registered relay factories in selection order.
func (r *Registry) RelayNames() []string {
	out := make([]string, len(r.relays))
	for i, e := range r.relays {
		out[i] = e.name
	}
	return out
}

// IngressNames lists the registered client factories in selection order.
func (r *Registry) IngressNames() []string {
	out := make([]string, len(r.ingress))
	for i, f := range r.ingress {
		out[i] = f.ingressName()
	}
	return out
}

// TerminusNames lists the registered server factories in selection order.
func (r *Registry) TerminusNames() []string {
	out := make([]string, len(r.termini))
	for i, e := range r.termini {
		out[i] = e.name
	}
	return out
}

func pick(n int, id topology.NodeID) int {
	return int(id) % n
}

// SelectRelay returns the relay factory for id.
func (r *Registry) SelectRelay(id topology.NodeID) (string, RelayFactory, error) {
	if len(r.relays) == 0 {
		return "", nil, fmt.Errorf("relay %d: %w", id, ErrNoFactory)
	}
	e := r.relays[pick(len(r.relays), id)]
	return e.name, e.factory, nil
}

// SelectIngress returns the client factory for id.
func (r *Registry) SelectIngress(id topology.NodeID) (IngressFactory, error) {
	if len(r.ingress) == 0 {
		return nil, fmt.Errorf("client %d: %w", id, ErrNoFactory)
	}
	return r.ingress[pick(len(r.ingress), id)], nil
}

// SelectTerminus returns the server factory for id.
func (r *Registry) SelectTerminus(id topology.NodeID) (string, TerminusFactory, error) {
	if len(r.termini) == 0 {
		return "", nil, fmt.Errorf("server %d: %w", id, ErrNoFactory)
	}
	e := r.termini[pick(len(r.termini), id)]
	return e.name, e.factory, nil
}
