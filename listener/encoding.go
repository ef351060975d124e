package listener

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

func newEncodedReader(enc string, r io.ReadCloser) (io.ReadCloser, error) {
	switch enc {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "deflate":
		return zlib.NewReader(r)
	case "compress", "br", "zstd":
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, enc)
	default:
		slog.Warn("unknown encoding", "enc", enc)
		return r, nil
	}
}

func readAllEncoded(enc string, r io.ReadCloser) ([]byte, error) {
	d, err := newEncodedReader(enc, r)
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	bs, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}

	if err := d.Close(); err != nil {
		slog.Warn("could not close reader", "err", err)
	}

	return bs, nil
}

// decodeBody undoes the Content-Encoding of h. Stacked encodings are
// removed last applied first.
func decodeBody(h http.Header, body []byte) ([]byte, error) {
	var encs []string
	for _, v := range h.Values("Content-Encoding") {
		for _, e := range strings.Split(v, ",") {
			if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
				encs = append(encs, e)
			}
		}
	}
	for i := len(encs) - 1; i >= 0 && len(body) > 0; i-- {
		var err error
		body, err = readAllEncoded(encs[i], io.NopCloser(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", encs[i], err)
		}
	}
	return body, nil
}
