package infer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/valyala/fastjson"
)

// ParseSampleBodyBytes decodes one JSON document into native values: nil,
// bool, string, int64 for integer literals, float64 for anything written
// with a fraction or exponent, []any and map[string]any.
func ParseSampleBodyBytes(b []byte) (any, error) {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return nil, err
	}
	return ParseSampleBodyFastJson(v)
}

func ParseSampleBodyFastJson(v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil, err
		}
		return parseFastJsonObject(o)
	case fastjson.TypeArray:
		a, err := v.Array()
		if err != nil {
			return nil, err
		}
		return parseFastJsonArray(a)
	case fastjson.TypeString:
		s, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return string(s), nil
	case fastjson.TypeNumber:
		return parseFastJsonNumber(v)
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeNull:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected json value type %s", v.Type())
}

func parseFastJsonObject(o *fastjson.Object) (map[string]any, error) {
	m := make(map[string]any, o.Len())

	var visitErr error
	o.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		child, err := ParseSampleBodyFastJson(v)
		if err != nil {
			visitErr = fmt.Errorf("%s: %w", key, err)
			return
		}
		m[string(key)] = child
	})

	if visitErr != nil {
		return nil, visitErr
	}
	return m, nil
}

func parseFastJsonArray(vs []*fastjson.Value) ([]any, error) {
	es := make([]any, len(vs))
	for i, v := range vs {
		e, err := ParseSampleBodyFastJson(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		es[i] = e
	}
	return es, nil
}

func parseFastJsonNumber(v *fastjson.Value) (any, error) {
	raw := v.MarshalTo(nil)
	if bytes.ContainsAny(raw, ".eE") {
		return v.Float64()
	}
	if i, err := v.Int64(); err == nil {
		return i, nil
	}
	// too large for int64, keep the literal so it still reads as an integer
	return json.Number(raw), nil
}
