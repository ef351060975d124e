package apispec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/siegeai/schemagen/infer"
	"github.com/siegeai/schemagen/jsonschema"
)

var ErrUnsupportedMethod = errors.New("unsupported http method")

// Exchange is one observed request and its response.
type Exchange struct {
	Method       string
	Path         string
	Status       int
	RequestBody  []byte
	ResponseBody []byte
}

// PathParam is a path segment replaced by a template variable.
type PathParam struct {
	Name   string
	Schema *openapi3.Schema
}

// TemplatePath replaces numeric and uuid segments of path with {argN}.
func TemplatePath(path string) (string, []PathParam) {
	var params []PathParam
	parts := strings.Split(path, "/")
	for i, p := range parts {
		var sch *openapi3.Schema
		if _, err := strconv.Atoi(p); err == nil {
			sch = &openapi3.Schema{Type: openapi3.TypeInteger}
		} else if _, err := uuid.Parse(p); err == nil && len(p) == 36 {
			sch = &openapi3.Schema{Type: openapi3.TypeString, Format: "uuid"}
		} else {
			continue
		}
		name := fmt.Sprintf("arg%d", len(params)+1)
		parts[i] = "{" + name + "}"
		params = append(params, PathParam{Name: name, Schema: sch})
	}
	return strings.Join(parts, "/"), params
}

var methods = map[string]bool{
	http.MethodConnect: true,
	http.MethodDelete:  true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodTrace:   true,
}

type operationKey struct {
	path   string
	method string
}

type operation struct {
	params    []PathParam
	request   *jsonschema.Builder
	responses map[int]*jsonschema.Builder
}

// Recorder infers request and response schemas per operation from observed
// exchanges. It is safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	opts       []jsonschema.Option
	operations map[operationKey]*operation
}

// NewRecorder returns a Recorder whose builders use opts.
func NewRecorder(opts ...jsonschema.Option) *Recorder {
	return &Recorder{
		opts:       append([]jsonschema.Option{jsonschema.WithoutSchemaURI()}, opts...),
		operations: map[operationKey]*operation{},
	}
}

func (r *Recorder) newBuilder() (*jsonschema.Builder, error) {
	return jsonschema.New(r.opts...)
}

// Record adds one exchange. Server errors are ignored, and so are request
// bodies of rejected (400) requests. Bodies that are not JSON only record
// the status.
func (r *Recorder) Record(ex Exchange) error {
	if !methods[ex.Method] {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, ex.Method)
	}
	if 500 <= ex.Status && ex.Status < 600 {
		return nil
	}

	path, params := TemplatePath(ex.Path)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := operationKey{path: path, method: ex.Method}
	op, ok := r.operations[key]
	if !ok {
		op = &operation{params: params, responses: map[int]*jsonschema.Builder{}}
		r.operations[key] = op
	}

	if len(ex.RequestBody) > 0 && ex.Status != http.StatusBadRequest {
		if op.request == nil {
			b, err := r.newBuilder()
			if err != nil {
				return err
			}
			op.request = b
		}
		if err := addBody(op.request, ex.RequestBody); err != nil {
			slog.Debug("skipping request body", "method", ex.Method, "path", ex.Path, "err", err)
		}
	}

	res, ok := op.responses[ex.Status]
	if !ok {
		b, err := r.newBuilder()
		if err != nil {
			return err
		}
		res = b
		op.responses[ex.Status] = res
	}
	if len(ex.ResponseBody) > 0 {
		if err := addBody(res, ex.ResponseBody); err != nil {
			slog.Debug("skipping response body", "method", ex.Method, "path", ex.Path, "status", ex.Status, "err", err)
		}
	}
	return nil
}

func addBody(b *jsonschema.Builder, body []byte) error {
	v, err := infer.ParseSampleBodyBytes(body)
	if err != nil {
		return err
	}
	return b.AddObject(v)
}

// Document renders everything recorded so far and validates the result.
func (r *Recorder) Document(ctx context.Context, title, version string) (*openapi3.T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.Paths{},
	}

	keys := make([]operationKey, 0, len(r.operations))
	for k := range r.operations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}
		return keys[i].method < keys[j].method
	})

	for _, k := range keys {
		op, err := r.operations[k].render()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", k.method, k.path, err)
		}
		item, ok := doc.Paths[k.path]
		if !ok {
			item = &openapi3.PathItem{}
			doc.Paths[k.path] = item
		}
		item.SetOperation(k.method, op)
	}

	if err := doc.Validate(ctx, openapi3.DisableSchemaFormatValidation()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (o *operation) render() (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	for _, p := range o.params {
		op.AddParameter(openapi3.NewPathParameter(p.Name).WithSchema(p.Schema))
	}

	if o.request != nil && !o.request.Empty() {
		sch, err := FromSchema(o.request.ToSchema())
		if err != nil {
			return nil, err
		}
		rb := openapi3.NewRequestBody().WithJSONSchema(sch)
		op.RequestBody = &openapi3.RequestBodyRef{Value: rb}
	}

	op.Responses = openapi3.Responses{}
	for status, b := range o.responses {
		rs := openapi3.NewResponse().WithDescription(http.StatusText(status))
		if !b.Empty() {
			sch, err := FromSchema(b.ToSchema())
			if err != nil {
				return nil, err
			}
			rs = rs.WithJSONSchema(sch)
		}
		op.Responses[strconv.Itoa(status)] = &openapi3.ResponseRef{Value: rs}
	}
	return op, nil
}
