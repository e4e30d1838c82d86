// Package control defines the typed commands a supervisor sends to nodes and
// the events nodes report back. Each role has its own sealed command and
// event interface, so a command meant for a relay cannot be queued to a
// client by mistake.
package control

import (
	"github.com/specialistvlad/meshboot/internal/mailbox"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/topology"
)

// Event is implemented by every event type.
type Event interface {
	EventName() string
}

type (
	// RelayCommand is accepted by relays.
	RelayCommand interface{ relayCommand() }
	// RelayEvent is emitted by relays.
	RelayEvent interface {
		Event
		relayEvent()
	}

	// WebCommand is accepted by web clients.
	WebCommand interface{ webCommand() }
	// WebEvent is emitted by web clients.
	WebEvent interface {
		Event
		webEvent()
	}

	// ChatCommand is accepted by chat clients.
	ChatCommand interface{ chatCommand() }
	// ChatEvent is emitted by chat clients.
	ChatEvent interface {
		Event
		chatEvent()
	}

	// ServerCommand is accepted by servers.
	ServerCommand interface{ serverCommand() }
	// ServerEvent is emitted by servers.
	ServerEvent interface {
		Event
		serverEvent()
	}
)

// AddSender gives a node a new outbound link.
type AddSender struct {
	ID     topology.NodeID
	Sender mailbox.Sender[packet.Packet]
}

// RemoveSender drops an outbound link.
type RemoveSender struct {
	ID topology.NodeID
}

// Crash asks a relay to stop. It drains nothing.
type Crash struct{}

// SetDropProbability changes a relay's drop probability.
type SetDropProbability struct {
	Probability float64
}

func (AddSender) relayCommand()          {}
func (AddSender) webCommand()            {}
func (AddSender) chatCommand()           {}
func (AddSender) serverCommand()         {}
func (RemoveSender) relayCommand()       {}
func (RemoveSender) webCommand()         {}
func (RemoveSender) chatCommand()        {}
func (RemoveSender) serverCommand()      {}
func (Crash) relayCommand()              {}
func (SetDropProbability) relayCommand() {}

// AskServerType makes a web client query the server at the end of Route.
type AskServerType struct {
	Route []topology.NodeID
}

// RequestFile makes a web client fetch Name from the server at the end of Route.
type RequestFile struct {
	Route []topology.NodeID
	Name  string
}

// AskFileList makes a web client ask the server at the end of Route which
// files it holds.
type AskFileList struct {
	Route []topology.NodeID
}

func (AskServerType) webCommand() {}
func (AskFileList) webCommand()   {}
func (RequestFile) webCommand()   {}

// SendMessage makes a chat client send Body to the node at the end of Route.
type SendMessage struct {
	Route []topology.NodeID
	Body  string
}

func (SendMessage) chatCommand() {}

// PacketSent is reported whenever a node hands a packet to a neighbour.
type PacketSent struct {
	From   topology.NodeID
	Packet packet.Packet
}

func (PacketSent) EventName() string { return "packet_sent" }
func (PacketSent) relayEvent()       {}
func (PacketSent) webEvent()         {}
func (PacketSent) chatEvent()        {}
func (PacketSent) serverEvent()      {}

// PacketDropped is reported when a relay discards a packet on purpose.
type PacketDropped struct {
	By     topology.NodeID
	Packet packet.Packet
}

func (PacketDropped) EventName() string { return "packet_dropped" }
func (PacketDropped) relayEvent()       {}

// ControllerShortcut is reported when a relay cannot reach the next hop and
// hands the packet to the supervisor for direct delivery.
type ControllerShortcut struct {
	By     topology.NodeID
	Packet packet.Packet
}

func (ControllerShortcut) EventName() string { return "controller_shortcut" }
func (ControllerShortcut) relayEvent()       {}

// ServerType is reported by a web client when a server answers its query.
type ServerType struct {
	Server topology.NodeID
	Type   string
}

func (ServerType) EventName() string { return "server_type" }
func (ServerType) webEvent()         {}

// FileReceived is reported by a web client when a file arrives.
type FileReceived struct {
	Server topology.NodeID
	Name   string
	Data   []byte
}

func (FileReceived) EventName() string { return "file_received" }
func (FileReceived) webEvent()         {}

// FileList is reported by a web client when a server lists its files.
type FileList struct {
	Server topology.NodeID
	Names  []string
}

func (FileList) EventName() string { return "file_list" }
func (FileList) webEvent()         {}

// Unsupported is reported by a web client when a server refuses a request.
type Unsupported struct {
	Server topology.NodeID
	Kind   packet.Kind
}

func (Unsupported) EventName() string { return "unsupported" }
func (Unsupported) webEvent()         {}

// MessageReceived is reported by a chat client when a message arrives.
type MessageReceived struct {
	From topology.NodeID
	Body string
}

func (MessageReceived) EventName() string { return "message_received" }
func (MessageReceived) chatEvent()        {}

// RequestServed is reported by a server after answering a request.
type RequestServed struct {
	Client topology.NodeID
	Kind   packet.Kind
}

func (RequestServed) EventName() string { return "request_served" }
func (RequestServed) serverEvent()      {}
