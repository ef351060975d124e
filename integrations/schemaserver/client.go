// Package schemaserver is a client for the schema registry served by srv.
package schemaserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	gojson "github.com/goccy/go-json"
	"github.com/siegeai/schemagen/jsonschema"
)

type Client struct {
	APIKey string
	Server string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var (
	ErrUnexpectedResponse = errors.New("unexpected response code")
)

func NewClient(apikey, server string) *Client {
	return &Client{
		APIKey: apikey,
		Server: server,
	}
}

// PushSchema merges s into the named schema and returns the result.
func (c *Client) PushSchema(ctx context.Context, name string, s jsonschema.Schema) (jsonschema.Schema, error) {
	bs, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, c.formatURL(name, "schemas"), bs)
}

// PushObjects adds samples to the named schema and returns the result.
func (c *Client) PushObjects(ctx context.Context, name string, objects ...any) (jsonschema.Schema, error) {
	var buf bytes.Buffer
	for _, o := range objects {
		bs, err := gojson.Marshal(o)
		if err != nil {
			return nil, err
		}
		buf.Write(bs)
		buf.WriteByte('\n')
	}
	return c.post(ctx, c.formatURL(name, "objects")+"?delimiter=newline", buf.Bytes())
}

func (c *Client) FetchSchema(ctx context.Context, name string) (jsonschema.Schema, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formatURL(name), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, u string, body []byte) (jsonschema.Schema, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (jsonschema.Schema, error) {
	if c.APIKey != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	bs, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if gojson.Unmarshal(bs, &body) == nil && body.Error != "" {
			return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedResponse, res.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("%w %d", ErrUnexpectedResponse, res.StatusCode)
	}

	var s jsonschema.Schema
	d := gojson.NewDecoder(bytes.NewReader(bs))
	d.UseNumber()
	if err := d.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}

func (c *Client) formatURL(name string, rest ...string) string {
	u := fmt.Sprintf("%s/schemas/%s", c.Server, url.PathEscape(name))
	for _, r := range rest {
		u += "/" + r
	}
	return u
}
