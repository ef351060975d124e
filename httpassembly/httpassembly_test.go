package httpassembly

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	got []*Exchange
}

func (c *collector) HandleExchange(ex *Exchange) {
	c.got = append(c.got, ex)
}

func TestConversationPairsRequestAndResponse(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("POST /users HTTP/1.1\r\nHost: x\r\nContent-Length: 13\r\n\r\n{\"name\":"))
	conv.clientData([]byte("\"ab\"}"))
	assert.Len(t, conv.pending, 1)
	conv.serverData([]byte("HTTP/1.1 201 Created\r\nContent-Length: 8\r\n\r\n{\"id\":1}"))

	require.Len(t, c.got, 1)
	ex := c.got[0]
	assert.Equal(t, "POST", ex.Request.Method)
	assert.Equal(t, "/users", ex.Request.URL.Path)
	assert.Equal(t, `{"name":"ab"}`, string(ex.RequestBody))
	assert.Equal(t, 201, ex.Response.StatusCode)
	assert.Equal(t, `{"id":1}`, string(ex.ResponseBody))
	assert.Empty(t, conv.pending)
}

func TestConversationPipelined(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\nGET /b HTTP/1.1\r\nHost: x\r\n\r\n"))
	conv.serverData([]byte("HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\n1HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n"))

	require.Len(t, c.got, 2)
	assert.Equal(t, "/a", c.got[0].Request.URL.Path)
	assert.Equal(t, 200, c.got[0].Response.StatusCode)
	assert.Equal(t, "/b", c.got[1].Request.URL.Path)
	assert.Equal(t, 404, c.got[1].Response.StatusCode)
}

func TestConversationChunkedResponse(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\n"))
	conv.serverData([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\n[1,2"))
	assert.Empty(t, c.got)
	conv.serverData([]byte("\r\n1\r\n]\r\n0\r\n\r\n"))

	require.Len(t, c.got, 1)
	assert.Equal(t, "[1,2]", string(c.got[0].ResponseBody))
}

func TestConversationInterimResponse(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("PUT /a HTTP/1.1\r\nHost: x\r\nContent-Length: 2\r\n\r\n{}"))
	conv.serverData([]byte("HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 204 No Content\r\n\r\n"))

	require.Len(t, c.got, 1)
	assert.Equal(t, 204, c.got[0].Response.StatusCode)
}

func TestConversationBodyUntilClose(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\n"))
	conv.serverData([]byte("HTTP/1.1 200 OK\r\n\r\n{\"a\":"))
	conv.serverData([]byte("1}"))
	assert.Empty(t, c.got)

	conv.close()
	require.Len(t, c.got, 1)
	assert.Equal(t, `{"a":1}`, string(c.got[0].ResponseBody))
}

func TestConversationGarbageIsDropped(t *testing.T) {
	c := &collector{}
	conv := newConversation(c, "test")

	conv.clientData([]byte("\x16\x03\x01\x02\x00 not http at all\r\n\r\n"))
	assert.Empty(t, conv.client)
	assert.Empty(t, conv.pending)
}

func packet(t *testing.T, src, dst uint16, seq, ack uint32, syn, isAck bool, payload []byte, ts time.Time) gopacket.Packet {
	t.Helper()
	srcIP, dstIP := net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)
	if src == 80 {
		srcIP, dstIP = dstIP, srcIP
	}
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(src),
		DstPort: layers.TCPPort(dst),
		Seq:     seq,
		Ack:     ack,
		SYN:     syn,
		ACK:     isAck,
		Window:  65535,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)))

	p := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
	md := p.Metadata()
	md.Timestamp = ts
	md.CaptureLength = len(buf.Bytes())
	md.Length = len(buf.Bytes())
	return p
}

func TestAssemblerEndToEnd(t *testing.T) {
	c := &collector{}
	a := NewAssembler(c)
	now := time.Now()

	req := []byte("GET /users/7 HTTP/1.1\r\nHost: x\r\n\r\n")
	res := []byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 9\r\n\r\n{\"id\":7}\n")

	a.Assemble(packet(t, 40000, 80, 100, 0, true, false, nil, now))
	a.Assemble(packet(t, 80, 40000, 300, 101, true, true, nil, now))
	a.Assemble(packet(t, 40000, 80, 101, 301, false, true, req, now))
	a.Assemble(packet(t, 80, 40000, 301, 101+uint32(len(req)), false, true, res, now))
	a.FlushAll()

	require.Len(t, c.got, 1)
	assert.Equal(t, "/users/7", c.got[0].Request.URL.Path)
	assert.Equal(t, "{\"id\":7}\n", string(c.got[0].ResponseBody))
}

func TestAssemblerIgnoresNonTCP(t *testing.T) {
	a := NewAssembler(HandlerFunc(func(*Exchange) { t.Fatal("unexpected exchange") }))
	p := gopacket.NewPacket([]byte{0, 1, 2}, layers.LayerTypeEthernet, gopacket.Default)
	a.Assemble(p)
	assert.Equal(t, 0, a.FlushAll())
}
