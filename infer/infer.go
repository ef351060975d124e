// Package infer decodes sample documents and feeds them to schema builders.
package infer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/siegeai/schemagen/jsonschema"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type DecodeOptions struct {
	Format Format

	// Delimiter separates concatenated JSON documents. Empty means detect
	// object boundaries. Ignored for YAML, which has its own separator.
	Delimiter string
}

// ParseError locates a document that failed to decode.
type ParseError struct {
	Source   string
	Document int
	Offset   int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: document %d: %v", e.Source, e.Document, e.Err)
	}
	return fmt.Sprintf("%s: document %d (offset %d): %v", e.Source, e.Document, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode reads every document from r.
func Decode(name string, r io.Reader, opts DecodeOptions) ([]any, error) {
	if opts.Format == FormatYAML {
		docs, err := ParseYAML(r)
		var yerr *YAMLError
		if errors.As(err, &yerr) {
			return nil, &ParseError{Source: name, Document: yerr.Document, Offset: -1, Err: yerr.Err}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return docs, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var docs []any
	for i, d := range SplitDocuments(string(raw), ResolveDelimiter(opts.Delimiter)) {
		v, err := ParseSampleBodyBytes([]byte(d.Text))
		if err != nil {
			return nil, &ParseError{Source: name, Document: i, Offset: d.Offset, Err: err}
		}
		docs = append(docs, v)
	}
	return docs, nil
}

// AddObjects adds every document in r to b as a sample.
func AddObjects(b *jsonschema.Builder, name string, r io.Reader, opts DecodeOptions) error {
	return feed(b.AddObject, name, r, opts)
}

// AddSchemas merges every document in r into b as a schema.
func AddSchemas(b *jsonschema.Builder, name string, r io.Reader, opts DecodeOptions) error {
	return feed(b.AddSchema, name, r, opts)
}

func feed(add func(any) error, name string, r io.Reader, opts DecodeOptions) error {
	docs, err := Decode(name, r, opts)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		if err := add(doc); err != nil {
			return fmt.Errorf("%s: document %d: %w", name, i, err)
		}
	}
	return nil
}

// Input is a named source of documents.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func FileInput(path string) Input {
	return Input{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func ReaderInput(name string, r io.Reader) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (in Input) decode(opts DecodeOptions) ([]any, error) {
	rc, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(in.Name, rc, opts)
}

func (in Input) addObjects(b *jsonschema.Builder, opts DecodeOptions) error {
	rc, err := in.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return AddObjects(b, in.Name, rc, opts)
}

type seedSchema struct {
	source string
	index  int
	schema any
}

// Job describes a whole inference run.
type Job struct {
	// NewBuilder returns an empty builder with the run's options.
	NewBuilder func() (*jsonschema.Builder, error)

	Schemas []Input
	Objects []Input
	Decode  DecodeOptions

	// Jobs > 1 infers objects from that many inputs at once, each into its
	// own builder, and merges the partial results in input order.
	Jobs int
}

// Run reads the schemas once and seeds every builder it creates with them.
func (j Job) Run(ctx context.Context) (*jsonschema.Builder, error) {
	var seeds []seedSchema
	for _, in := range j.Schemas {
		docs, err := in.decode(j.Decode)
		if err != nil {
			return nil, err
		}
		for i, doc := range docs {
			seeds = append(seeds, seedSchema{source: in.Name, index: i, schema: doc})
		}
	}
	seeded := func() (*jsonschema.Builder, error) {
		b, err := j.NewBuilder()
		if err != nil {
			return nil, err
		}
		for _, s := range seeds {
			if err := b.AddSchema(s.schema); err != nil {
				return nil, fmt.Errorf("%s: document %d: %w", s.source, s.index, err)
			}
		}
		return b, nil
	}

	result, err := seeded()
	if err != nil {
		return nil, err
	}

	if j.Jobs <= 1 || len(j.Objects) <= 1 {
		for _, in := range j.Objects {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := in.addObjects(result, j.Decode); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	partials := make([]*jsonschema.Builder, len(j.Objects))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.Jobs)
	for i, in := range j.Objects {
		i, in := i, in // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := seeded()
			if err != nil {
				return err
			}
			if err := in.addObjects(b, j.Decode); err != nil {
				return err
			}
			partials[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, p := range partials {
		if err := result.Merge(p); err != nil {
			return nil, fmt.Errorf("%s: %w", j.Objects[i].Name, err)
		}
	}
	return result, nil
}
