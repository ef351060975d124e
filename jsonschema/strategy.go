package jsonschema

import (
	"fmt"
	"log/slog"
	"regexp"
)

// Kind is a strategy family. It decides whether a fresh strategy of its kind
// should absorb a value or fragment that no existing strategy on a node took.
type Kind interface {
	MatchObject(env *Env, v any) bool
	MatchSchema(env *Env, s Schema) bool
	New(env *Env) Strategy
}

// Strategy accumulates the observations for one shape at one position of the
// document tree.
type Strategy interface {
	MatchObject(v any) bool
	MatchSchema(s Schema) bool
	AddObject(v any) error
	AddSchema(s Schema) error

	// ToSchema must not mutate the strategy.
	ToSchema() Schema
}

// builtinKinds is the dispatch table, in priority order.
var builtinKinds = []Kind{
	NullKind,
	BooleanKind,
	NumberKind,
	StringKind,
	ListKind,
	TupleKind,
	ObjectKind,
	EnumKind,
}

// Env is the state shared by every node of one builder.
type Env struct {
	settings settings
	kinds    []Kind
	patterns []*regexp.Regexp
	warnings []Warning
	logger   *slog.Logger

	// mergeForm makes ToSchema keep state a plain schema would drop, such
	// as a required set that intersected down to nothing.
	mergeForm bool
}

func newEnv(s settings) (*Env, error) {
	env := &Env{
		settings: s,
		kinds:    append(append([]Kind{}, s.kinds...), builtinKinds...),
		logger:   s.logger,
	}
	for _, p := range s.patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidSchema, p, err)
		}
		env.patterns = append(env.patterns, re)
	}
	return env, nil
}

// NewNode returns an empty node bound to env. Composite strategies use it for
// their children.
func (e *Env) NewNode() *Node {
	return &Node{env: e}
}

// Warn records w and logs it when a logger is configured.
func (e *Env) Warn(w Warning) {
	e.warnings = append(e.warnings, w)
	if e.logger != nil {
		e.logger.Warn(w.Message, "code", string(w.Code), "keyword", w.Keyword)
	}
}

func (e *Env) MergeArrays() bool          { return e.settings.mergeArrays }
func (e *Env) AdditionalItems() bool      { return e.settings.addItems }
func (e *Env) AdditionalProperties() bool { return e.settings.addProps }
func (e *Env) TrackRequired() bool        { return e.settings.required }

// Keywords collects the keywords a strategy passes through untouched. The
// first value seen for a keyword wins; later conflicting values raise a
// WarnConflictingKeyword.
type Keywords struct {
	env    *Env
	known  map[string]bool
	values Schema
}

func NewKeywords(env *Env, known ...string) Keywords {
	k := Keywords{env: env, known: make(map[string]bool, len(known))}
	for _, kw := range known {
		k.known[kw] = true
	}
	return k
}

// Known reports whether keyword is modeled by the owner.
func (k *Keywords) Known(keyword string) bool {
	return k.known[keyword]
}

func (k *Keywords) Add(s Schema) {
	for _, kw := range sortedKeys(s) {
		if k.known[kw] {
			continue
		}
		v := s[kw]
		if k.values == nil {
			k.values = Schema{}
		}
		old, ok := k.values[kw]
		if !ok {
			k.values[kw] = v
			continue
		}
		if !equalValues(old, v) {
			k.env.Warn(conflictWarning(kw, old, v))
		}
	}
}

func (k *Keywords) Len() int {
	return len(k.values)
}

// Schema returns a copy of the collected keywords.
func (k *Keywords) Schema() Schema {
	if k.values == nil {
		return Schema{}
	}
	return k.values.Clone()
}

// Base implements the keyword passthrough every strategy shares. Strategies
// embed it and override what they model.
type Base struct {
	Env      *Env
	Keywords Keywords
}

// NewBase returns a Base that treats known and "type" as modeled keywords.
func NewBase(env *Env, known ...string) Base {
	return Base{Env: env, Keywords: NewKeywords(env, append([]string{"type"}, known...)...)}
}

func (b *Base) AddSchema(s Schema) error {
	b.Keywords.Add(s)
	return nil
}

func (b *Base) AddObject(any) error {
	return nil
}

func (b *Base) ToSchema() Schema {
	return b.Keywords.Schema()
}
