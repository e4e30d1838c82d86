package registry

import (
	"log/slog"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// RelayParams is what a relay constructor receives.
type RelayParams struct {
	node.Endpoints[control.RelayCommand, control.RelayEvent]
	DropProbability float64
}

// WebParams is what a web client constructor receives.
type WebParams struct {
	node.Endpoints[control.WebCommand, control.WebEvent]
}

// ChatParams is what a chat client constructor receives.
type ChatParams struct {
	node.Endpoints[control.ChatCommand, control.ChatEvent]
}

// TerminusParams is what a server constructor receives.
type TerminusParams struct {
	node.Endpoints[control.ServerCommand, control.ServerEvent]
}

// RelayFactory builds a relay.
type RelayFactory interface {
	NewRelay(RelayParams) (node.Runnable, error)
}

// RelayFactoryFunc adapts a function to RelayFactory.
type RelayFactoryFunc func(RelayParams) (node.Runnable, error)

// NewRelay calls f(p).
func (f RelayFactoryFunc) NewRelay(p RelayParams) (node.Runnable, error) { return f(p) }

// TerminusFactory builds a server.
type TerminusFactory interface {
	NewTerminus(TerminusParams) (node.Runnable, error)
}

// TerminusFactoryFunc adapts a function to TerminusFactory.
type TerminusFactoryFunc func(TerminusParams) (node.Runnable, error)

// NewTerminus calls f(p).
func (f TerminusFactoryFunc) NewTerminus(p TerminusParams) (node.Runnable, error) { return f(p) }

// IngressFactory is either a WebIngress or a ChatIngress.
type IngressFactory interface {
	ingressName() string
}

// WebIngress builds web clients.
type WebIngress struct {
	Name string
	New  func(WebParams) (node.Runnable, error)
}

// ChatIngress builds chat clients.
type ChatIngress struct {
	Name string
	New  func(ChatParams) (node.Runnable, error)
}

func (w WebIngress) ingressName() string  { return w.Name }
func (c ChatIngress) ingressName() string { return c.Name }

// RegisterRelay appends a relay factory.
func (r *Registry) RegisterRelay(name string, f RelayFactory) {
	r.claim(topology.RoleRelay, name)
	slog.Debug("Registering relay factory.", "name", name)
	r.relays = append(r.relays, namedRelay{name: name, factory: f})
}

// RegisterIngress appends a client factory.
func (r *Registry) RegisterIngress(f IngressFactory) {
	switch f := f.(type) {
	case WebIngress:
		if f.New == nil {
			panic("web ingress factory '" + f.Name + "' has no constructor")
		}
	case ChatIngress:
		if f.New == nil {
			panic("chat ingress factory '" + f.Name + "' has no constructor")
		}
	}
	r.claim(topology.RoleIngress, f.ingressName())
	slog.Debug("Registering ingress factory.", "name", f.ingressName())
	r.ingress = append(r.ingress, f)
}

// RegisterTerminus appends a server factory.
func (r *Registry) RegisterTerminus(name string, f TerminusFactory) {
	r.claim(topology.RoleTerminus, name)
	slog.Debug("Registering terminus factory.", "name", name)
	r.termini = append(r.termini, namedTerminus{name: name, factory: f})
}
