// Package fake generates random JSON-shaped values for exercising schema
// inference.
package fake

import "math/rand"

type Generator struct {
	r *rand.Rand

	MaxDepth int
	MaxKeys  int
	MaxItems int

	// keys is a small pool so that generated objects overlap.
	keys []string
}

// New returns a Generator whose output is fully determined by seed.
func New(seed int64) *Generator {
	g := &Generator{
		r:        rand.New(rand.NewSource(seed)),
		MaxDepth: 4,
		MaxKeys:  8,
		MaxItems: 5,
	}
	for i := 0; i < 12; i++ {
		g.keys = append(g.keys, g.String(1+g.r.Intn(8)))
	}
	return g
}

// Value returns null, a bool, an int64, a float64, a string, a []any or a
// map[string]any.
func (g *Generator) Value() any {
	return g.value(0)
}

// Object returns a random map[string]any.
func (g *Generator) Object() map[string]any {
	return g.object(0)
}

func (g *Generator) value(depth int) any {
	n := 7
	if depth+1 >= g.MaxDepth {
		n = 5
	}
	switch g.r.Intn(n) {
	case 0:
		return nil
	case 1:
		return g.r.Intn(2) == 0
	case 2:
		return g.r.Int63n(2000) - 1000
	case 3:
		// never integral
		return float64(g.r.Intn(1000)) + 0.5
	case 4:
		return g.String(1 + g.r.Intn(16))
	case 5:
		return g.array(depth + 1)
	default:
		return g.object(depth + 1)
	}
}

func (g *Generator) object(depth int) map[string]any {
	nkeys := g.r.Intn(g.MaxKeys + 1)
	obj := make(map[string]any, nkeys)
	for i := 0; i < nkeys; i++ {
		obj[g.keys[g.r.Intn(len(g.keys))]] = g.value(depth)
	}
	return obj
}

func (g *Generator) array(depth int) []any {
	n := g.r.Intn(g.MaxItems + 1)
	arr := make([]any, n)
	for i := range arr {
		arr[i] = g.value(depth)
	}
	return arr
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (g *Generator) String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[g.r.Intn(len(letters))]
	}
	return string(b)
}
