// Package httpassembly reassembles TCP streams into HTTP/1.x request and
// response pairs.
package httpassembly

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/reassembly"
)

type Assembler struct {
	pool      *reassembly.StreamPool
	assembler *reassembly.Assembler
}

// NewAssembler returns an Assembler reporting every complete exchange to h.
// Assemble, FlushOlderThan and FlushAll must be called from one goroutine.
func NewAssembler(h Handler) *Assembler {
	p := reassembly.NewStreamPool(&streamFactory{h: h})
	a := reassembly.NewAssembler(p)
	return &Assembler{pool: p, assembler: a}
}

type assemblyContext struct {
	CaptureInfo gopacket.CaptureInfo
}

func (c *assemblyContext) GetCaptureInfo() gopacket.CaptureInfo {
	return c.CaptureInfo
}

// Assemble feeds one packet. Packets without a TCP layer are ignored.
func (a *Assembler) Assemble(p gopacket.Packet) {
	tcp, ok := p.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if !ok || p.NetworkLayer() == nil {
		return
	}
	c := assemblyContext{CaptureInfo: p.Metadata().CaptureInfo}
	a.assembler.AssembleWithContext(p.NetworkLayer().NetworkFlow(), tcp, &c)
}

// FlushOlderThan closes streams idle since before t and returns how many.
func (a *Assembler) FlushOlderThan(t time.Time) int {
	_, closed := a.assembler.FlushCloseOlderThan(t)
	return closed
}

func (a *Assembler) FlushAll() int {
	return a.assembler.FlushAll()
}

type streamFactory struct {
	h Handler
}

func (f *streamFactory) New(netFlow, tcpFlow gopacket.Flow, tcp *layers.TCP, ac reassembly.AssemblerContext) reassembly.Stream {
	return &stream{conv: newConversation(f.h, netFlow.String()+" "+tcpFlow.String())}
}

type stream struct {
	conv *conversation
}

func (s *stream) Accept(tcp *layers.TCP, ci gopacket.CaptureInfo, dir reassembly.TCPFlowDirection, nextSeq reassembly.Sequence, start *bool, ac reassembly.AssemblerContext) bool {
	return true
}

func (s *stream) ReassembledSG(sg reassembly.ScatterGather, ac reassembly.AssemblerContext) {
	l, _ := sg.Lengths()
	if l == 0 {
		return
	}
	dir, _, _, _ := sg.Info()
	// Fetch may return the assembler's own buffer
	payload := append([]byte(nil), sg.Fetch(l)...)
	if dir == reassembly.TCPDirClientToServer {
		s.conv.clientData(payload)
	} else {
		s.conv.serverData(payload)
	}
}

func (s *stream) ReassemblyComplete(ac reassembly.AssemblerContext) bool {
	s.conv.close()
	return true
}
