package httpassembly

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// Exchange is a request and the response it received. Bodies have the
// transfer encoding removed but not the content encoding.
type Exchange struct {
	Request      *http.Request
	RequestBody  []byte
	Response     *http.Response
	ResponseBody []byte
}

type Handler interface {
	HandleExchange(ex *Exchange)
}

type HandlerFunc func(ex *Exchange)

func (f HandlerFunc) HandleExchange(ex *Exchange) {
	f(ex)
}

var errIncomplete = errors.New("incomplete message")

type pendingRequest struct {
	req  *http.Request
	body []byte
}

// conversation buffers both directions of one connection and pairs
// responses with requests in order, so pipelined requests work.
type conversation struct {
	h       Handler
	id      string
	client  []byte
	server  []byte
	pending []pendingRequest
}

func newConversation(h Handler, id string) *conversation {
	return &conversation{h: h, id: id}
}

func (c *conversation) clientData(b []byte) {
	c.client = append(c.client, b...)
	for len(c.client) > 0 {
		req, body, n, err := readRequest(c.client)
		if errors.Is(err, errIncomplete) {
			break
		}
		if err != nil {
			slog.Debug("dropping unparseable request data", "conn", c.id, "err", err, "len", len(c.client))
			c.client = nil
			break
		}
		c.client = c.client[n:]
		c.pending = append(c.pending, pendingRequest{req: req, body: body})
	}
	c.drainResponses(false)
}

func (c *conversation) serverData(b []byte) {
	c.server = append(c.server, b...)
	c.drainResponses(false)
}

// close flushes a response whose length is only known at end of stream.
func (c *conversation) close() {
	c.drainResponses(true)
	if len(c.pending) > 0 {
		slog.Debug("connection closed with unanswered requests", "conn", c.id, "pending", len(c.pending))
	}
}

func (c *conversation) drainResponses(final bool) {
	for len(c.server) > 0 && len(c.pending) > 0 {
		p := c.pending[0]
		res, body, n, err := readResponse(c.server, p.req, final)
		if errors.Is(err, errIncomplete) {
			return
		}
		if err != nil {
			slog.Debug("dropping unparseable response data", "conn", c.id, "err", err, "len", len(c.server))
			c.server = nil
			return
		}
		c.server = c.server[n:]
		if res.StatusCode < 200 {
			// interim response, the final one follows
			continue
		}
		c.pending = c.pending[1:]
		c.h.HandleExchange(&Exchange{
			Request:      p.req,
			RequestBody:  p.body,
			Response:     res,
			ResponseBody: body,
		})
	}
}

func incomplete(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func readRequest(buf []byte) (*http.Request, []byte, int, error) {
	br := bytes.NewReader(buf)
	r := bufio.NewReader(br)
	req, err := http.ReadRequest(r)
	if err != nil {
		if incomplete(err) {
			return nil, nil, 0, errIncomplete
		}
		return nil, nil, 0, err
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		if incomplete(err) {
			return nil, nil, 0, errIncomplete
		}
		return nil, nil, 0, err
	}
	return req, body, len(buf) - br.Len() - r.Buffered(), nil
}

func readResponse(buf []byte, req *http.Request, final bool) (*http.Response, []byte, int, error) {
	br := bytes.NewReader(buf)
	r := bufio.NewReader(br)
	res, err := http.ReadResponse(r, req)
	if err != nil {
		if incomplete(err) {
			return nil, nil, 0, errIncomplete
		}
		return nil, nil, 0, err
	}
	if !final && delimitedByClose(res, req) {
		return nil, nil, 0, errIncomplete
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		if incomplete(err) && !final {
			return nil, nil, 0, errIncomplete
		}
		return nil, nil, 0, err
	}
	return res, body, len(buf) - br.Len() - r.Buffered(), nil
}

// delimitedByClose reports whether the body of res runs until the server
// closes the connection.
func delimitedByClose(res *http.Response, req *http.Request) bool {
	if res.ContentLength >= 0 || len(res.TransferEncoding) > 0 {
		return false
	}
	if req.Method == http.MethodHead || res.StatusCode < 200 {
		return false
	}
	return res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusNotModified
}
