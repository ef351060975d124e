// Package listener turns captured HTTP traffic into recorded exchanges.
package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/siegeai/schemagen/apispec"
	"github.com/siegeai/schemagen/httpassembly"
)

type Recorder interface {
	Record(ex apispec.Exchange) error
}

var _ Recorder = (*apispec.Recorder)(nil)

type Listener struct {
	source    PacketSource
	recorder  Recorder
	assembler *httpassembly.Assembler

	flushEvery time.Duration
	idle       time.Duration
	last       time.Time
}

type Option func(*Listener)

// WithFlushInterval sets how often idle connections are checked.
func WithFlushInterval(d time.Duration) Option {
	return func(l *Listener) {
		l.flushEvery = d
	}
}

// WithIdleTimeout sets how long a connection may go without packets
// before its buffered data is flushed.
func WithIdleTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.idle = d
	}
}

func New(source PacketSource, recorder Recorder, opts ...Option) *Listener {
	l := &Listener{
		source:     source,
		recorder:   recorder,
		flushEvery: time.Minute,
		idle:       2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.assembler = httpassembly.NewAssembler(l)
	return l
}

// Run assembles packets until the source is exhausted or ctx is done, then
// flushes every open connection.
func (l *Listener) Run(ctx context.Context) error {
	packets := l.source.Packets()
	ticker := time.NewTicker(l.flushEvery)
	defer ticker.Stop()
	defer l.assembler.FlushAll()

	for {
		select {
		case <-ctx.Done():
			return nil

		case packet, ok := <-packets:
			if !ok {
				return nil
			}
			l.assemble(packet)

		case <-ticker.C:
			if l.last.IsZero() {
				continue
			}
			if n := l.assembler.FlushOlderThan(l.last.Add(-l.idle)); n > 0 {
				slog.Debug("flushed idle connections", "count", n)
			}
		}
	}
}

func (l *Listener) assemble(p gopacket.Packet) {
	// capture time rather than wall time, so replayed dumps age correctly
	if ts := p.Metadata().Timestamp; ts.After(l.last) {
		l.last = ts
	}
	l.assembler.Assemble(p)
}

func (l *Listener) HandleExchange(ex *httpassembly.Exchange) {
	req, res := ex.Request, ex.Response
	slog.Info("handling", "method", req.Method, "path", req.URL.Path, "status", res.StatusCode)

	reqBody, err := decodeBody(req.Header, ex.RequestBody)
	if err != nil {
		slog.Warn("could not read request body", "path", req.URL.Path, "err", err)
		reqBody = nil
	}
	resBody, err := decodeBody(res.Header, ex.ResponseBody)
	if err != nil {
		slog.Warn("could not read response body", "path", req.URL.Path, "err", err)
		resBody = nil
	}

	err = l.recorder.Record(apispec.Exchange{
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       res.StatusCode,
		RequestBody:  reqBody,
		ResponseBody: resBody,
	})
	if err != nil {
		slog.Warn("could not record exchange", "method", req.Method, "path", req.URL.Path, "err", err)
	}
}
