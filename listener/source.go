package listener

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
)

type PacketSource interface {
	Packets() chan gopacket.Packet
}

var _ PacketSource = (*gopacket.PacketSource)(nil)

// NewPacketSourceLive captures from device. An empty filter captures all
// traffic.
func NewPacketSourceLive(device, filter string) (PacketSource, error) {
	handle, err := pcap.OpenLive(device, 65535, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if filter != "" {
		if err = handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set filter %q: %w", filter, err)
		}
	}
	return gopacket.NewPacketSource(handle, handle.LinkType()), nil
}

// FileSource reads a pcap or pcapng dump. Its channel is closed at end of
// file.
type FileSource struct {
	*gopacket.PacketSource
	f *os.File
}

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

func NewPacketSourceFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)
	magic, err := r.Peek(4)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var src *gopacket.PacketSource
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		src = gopacket.NewPacketSource(ng, ng.LinkType())
	} else {
		pr, err := pcapgo.NewReader(r)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		src = gopacket.NewPacketSource(pr, pr.LinkType())
	}
	return &FileSource{PacketSource: src, f: f}, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
