package servers

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/specialistvlad/meshboot/internal/control"
	"github.com/specialistvlad/meshboot/internal/ctxlog"
	"github.com/specialistvlad/meshboot/internal/node"
	"github.com/specialistvlad/meshboot/internal/packet"
	"github.com/specialistvlad/meshboot/internal/registry"
)

//go:embed public
var public embed.FS

// DefaultContent is served when a Module has no Content.
var DefaultContent fs.FS = mustSub(public, "public")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Variant decides which files a server publishes.
type Variant int

const (
	Text Variant = iota
	Media
)

func (v Variant) String() string {
	if v == Media {
		return "media"
	}
	return "text"
}

var textExtensions = map[string]bool{".html": true, ".htm": true, ".txt": true, ".md": true}

func (v Variant) serves(name string) bool {
	return textExtensions[strings.ToLower(path.Ext(name))] == (v == Text)
}

// Module implements the registry.Module interface for this package. It
// registers the text server first, so with ids taken modulo two, even
// server ids serve text and odd ones serve media.
type Module struct {
	Content fs.FS
}

// Server answers type, listing, file and chat requests over the reversed
// route.
type Server struct {
	params  registry.TerminusParams
	variant Variant
	content fs.FS
}

// New builds a server.
func New(p registry.TerminusParams, v Variant, content fs.FS) *Server {
	if p.Outbound == nil {
		p.Outbound = node.Outbound{}
	}
	if content == nil {
		content = DefaultContent
	}
	return &Server{params: p, variant: v, content: content}
}

// Run processes commands and packets until ctx is done.
func (s *Server) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx).With("variant", s.variant.String())
	node.Loop(ctx, s.params.Commands, s.params.Inbound,
		func(cmd control.ServerCommand) bool {
			switch cmd := cmd.(type) {
			case control.AddSender:
				s.params.Outbound[cmd.ID] = cmd.Sender
			case control.RemoveSender:
				delete(s.params.Outbound, cmd.ID)
			}
			return true
		},
		func(p packet.Packet) bool {
			s.handlePacket(logger, p)
			return true
		},
	)
}

func (s *Server) handlePacket(logger *slog.Logger, p packet.Packet) {
	if !p.AtDestination() {
		logger.Warn("Server received a packet in transit; dropping it.", "session", p.Session, "route", p.Route, "hop", p.Hop)
		return
	}

	kind, payload := s.answer(logger, p)
	reply := p.Reply(kind, payload)
	sent, err := node.Forward(s.params.ID, s.params.Outbound, reply)
	if err != nil {
		logger.Warn("Reply not sent.", "session", p.Session, "route", reply.Route, "error", err)
		return
	}
	s.params.Events.Send(control.PacketSent{From: s.params.ID, Packet: sent})
	s.params.Events.Send(control.RequestServed{Client: p.Source(), Kind: p.Kind})
}

func (s *Server) answer(logger *slog.Logger, p packet.Packet) (packet.Kind, []byte) {
	switch p.Kind {
	case packet.KindServerTypeRequest:
		return packet.KindServerTypeResponse, []byte(s.variant.String())
	case packet.KindFileListRequest:
		return packet.KindFileListResponse, []byte(strings.Join(s.files(logger), "\n"))
	case packet.KindFileRequest:
		name := string(p.Payload)
		if !s.variant.serves(name) {
			break
		}
		data, err := fs.ReadFile(s.content, name)
		if err != nil {
			logger.Debug("File not served.", "name", name, "error", err)
			break
		}
		return packet.KindFileResponse, data
	case packet.KindChatMessage:
		return packet.KindChatMessage, p.Payload
	}
	return packet.KindUnsupported, []byte{byte(p.Kind)}
}

// files lists the regular files this server publishes, sorted.
func (s *Server) files(logger *slog.Logger) []string {
	entries, err := fs.ReadDir(s.content, ".")
	if err != nil {
		logger.Warn("Cannot list content.", "error", err)
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && s.variant.serves(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// Register registers the text and media server factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	for _, v := range []Variant{Text, Media} {
		r.RegisterTerminus(v.String(), registry.TerminusFactoryFunc(func(p registry.TerminusParams) (node.Runnable, error) {
			return New(p, v, m.Content), nil
		}))
	}
}
