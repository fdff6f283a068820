package testutil

import "fmt"

// IDGenerator hands out sequential document ids for records that carry no
// key property. The same generator fed the same records produces the same
// ids, which keeps golden output stable.
//
// Thread-safety: IDGenerator is safe for concurrent use.
type IDGenerator struct {
	prefix  string
	counter *Counter
}

// NewIDGenerator creates a generator producing "<prefix>-1", "<prefix>-2"
// and so on. An empty prefix defaults to "doc".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "doc"
	}
	return &IDGenerator{prefix: prefix, counter: NewCounter()}
}

// Generate returns the next id.
func (g *IDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Next())
}

// Issued reports how many ids Generate has handed out.
func (g *IDGenerator) Issued() int {
	return int(g.counter.Current())
}
