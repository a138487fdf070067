package target

// Chain is the ordered-fallback Target kind: a sequence of sub-targets,
// each with its own match settings, matched by HybridFinder (spec.md §3,
// §4.E.9). Steps are flattened in document order at load time by
// internal/chainfile; Chain itself never reorders them.
type Chain struct {
	Steps []Target

	settings Settings
	sim      float64
	dx, dy   int
}

// NewChain constructs a Chain target from an ordered list of steps.
func NewChain(steps []Target) *Chain {
	return &Chain{Steps: steps, settings: InheritSettings{}, sim: 0.8}
}

func (c *Chain) Kind() Kind                 { return KindChain }
func (c *Chain) MatchSettings() Settings    { return c.settings }
func (c *Chain) Similarity() float64        { return c.sim }
func (c *Chain) CenterOffset() (int, int)   { return c.dx, c.dy }
func (c *Chain) SetSettings(s Settings)     { c.settings = s }
func (c *Chain) SetSimilarity(sim float64)  { c.sim = sim }
func (c *Chain) SetCenterOffset(dx, dy int) { c.dx, c.dy = dx, dy }
