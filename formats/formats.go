// Package formats adds "format" inference for strings to a schema builder.
package formats

import (
	"net/mail"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/siegeai/schemagen/jsonschema"
)

const (
	UUID     = "uuid"
	DateTime = "date-time"
	Date     = "date"
	Email    = "email"
	IPv4     = "ipv4"
	IPv6     = "ipv6"
)

// Detect returns the format s satisfies, or "" if none.
func Detect(s string) string {
	switch {
	case isUUID(s):
		return UUID
	case isDateTime(s):
		return DateTime
	case isDate(s):
		return Date
	}
	if addr, err := netip.ParseAddr(s); err == nil && addr.Zone() == "" {
		if addr.Is4() {
			return IPv4
		}
		return IPv6
	}
	if isEmail(s) {
		return Email
	}
	return ""
}

func isUUID(s string) bool {
	// uuid.Parse also takes the urn and braced forms
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Kind returns a strategy kind for strings that also reports the format
// shared by every observed value. Register it with jsonschema.WithStrategies.
func Kind() jsonschema.Kind {
	return kind{}
}

type kind struct{}

func (kind) MatchObject(env *jsonschema.Env, v any) bool {
	return jsonschema.StringKind.MatchObject(env, v)
}

func (kind) MatchSchema(env *jsonschema.Env, s jsonschema.Schema) bool {
	return jsonschema.StringKind.MatchSchema(env, s)
}

func (kind) New(env *jsonschema.Env) jsonschema.Strategy {
	return &strategy{Base: jsonschema.NewBase(env, "format")}
}

type strategy struct {
	jsonschema.Base
	format string
	seen   bool
	mixed  bool
}

func (s *strategy) MatchObject(v any) bool {
	return jsonschema.StringKind.MatchObject(s.Env, v)
}

func (s *strategy) MatchSchema(sch jsonschema.Schema) bool {
	return jsonschema.StringKind.MatchSchema(s.Env, sch)
}

// observe narrows the format. Once two observations disagree the format is
// dropped for good.
func (s *strategy) observe(format string) {
	switch {
	case s.mixed:
	case !s.seen:
		s.format, s.seen = format, true
		s.mixed = format == ""
	case s.format != format:
		s.format, s.mixed = "", true
	}
}

func (s *strategy) AddObject(v any) error {
	str, _ := v.(string)
	s.observe(Detect(str))
	return nil
}

func (s *strategy) AddSchema(sch jsonschema.Schema) error {
	if err := s.Base.AddSchema(sch); err != nil {
		return err
	}
	// keyword-only fragments folded in say nothing about the values
	if _, typed := sch.Type(); typed {
		f, _ := sch["format"].(string)
		s.observe(f)
	}
	return nil
}

func (s *strategy) ToSchema() jsonschema.Schema {
	out := s.Base.ToSchema()
	out["type"] = "string"
	if !s.mixed && s.format != "" {
		out["format"] = s.format
	}
	return out
}
