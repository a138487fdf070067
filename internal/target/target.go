package target

import (
	"context"
	"image"

	"github.com/guibot-go/guibot/internal/localconfig"
)

// Kind identifies the concrete Target implementation, used by Finder
// capability checks (spec.md §4.E: "Text requires a text finder, Pattern
// requires cascade or deep finder, Chain requires the hybrid finder").
type Kind int

const (
	KindImage Kind = iota
	KindText
	KindPattern
	KindChain
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindPattern:
		return "pattern"
	case KindChain:
		return "chain"
	default:
		return "unknown"
	}
}

// MatchSettingsFinder is the minimal Finder contract a Target's own match
// settings can hold. internal/finder.Finder satisfies this interface
// structurally; target does not import finder, avoiding an import cycle
// (finder imports target to describe Find's needle/haystack/result types).
type MatchSettingsFinder interface {
	Find(ctx context.Context, needle Target, haystack image.Image) ([]Match, error)
	Settings() *localconfig.LocalConfig
}

// Settings is the enum `Inherit | Own(Finder)` called for by spec.md §9,
// replacing the original's `use_own_settings bool` + `match_settings`
// field pair that could be constructed inconsistently.
type Settings interface {
	isSettings()
}

// InheritSettings means: the calling Region's (out of scope) configured
// finder should be used rather than anything carried by this Target.
type InheritSettings struct{}

func (InheritSettings) isSettings() {}

// OwnSettings carries a fully configured Finder that should be used instead
// of the caller's default, regardless of context.
type OwnSettings struct {
	F MatchSettingsFinder
}

func (OwnSettings) isSettings() {}

// Target is the abstract base of spec.md §3: every concrete kind owns match
// settings, a use-own-settings decision (folded into Settings), a
// similarity threshold, and a center offset.
type Target interface {
	Kind() Kind
	MatchSettings() Settings
	Similarity() float64
	CenterOffset() (dx, dy int)
}
