package stabilizer

import (
	"math"
	"sort"
	"strconv"

	"github.com/okian/smaile/internal/domain/expression"
)

// Default stabilizer configuration constants.
const (
	DefaultConfidenceThreshold = 0.05
	DefaultChangeThreshold     = 0.15
	DefaultTopK                = 3
)

// Kind tells the renderer what to do with a Result.
type Kind uint8

// Result kinds.
const (
	// KindNoStrongExpression means nothing cleared the confidence threshold.
	KindNoStrongExpression Kind = iota
	// KindFullUpdate replaces the shown categories, icons and values.
	KindFullUpdate
	// KindValuesUpdate refreshes numbers for categories already shown.
	KindValuesUpdate
	// KindAllExpressions is the unstabilized every-category view.
	KindAllExpressions
)

func (k Kind) String() string {
	switch k {
	case KindNoStrongExpression:
		return "no_strong_expression"
	case KindFullUpdate:
		return "full_update"
	case KindValuesUpdate:
		return "values_update"
	case KindAllExpressions:
		return "all_expressions"
	default:
		return "unknown"
	}
}

// Ranked pairs a category with its averaged confidence.
type Ranked struct {
	Category   expression.Category
	Confidence float64
}

// Display is one rendered slot.
type Display struct {
	Category   expression.Category
	Confidence float64
	Icon       string
	// Slot is the position of this item in the shown list.
	Slot int
}

// Percent formats the confidence the way the overlay prints it, e.g. "85.0%".
func (d Display) Percent() string {
	return strconv.FormatFloat(d.Confidence*100, 'f', 1, 64) + "%"
}

// Result is the outcome of one Update.
type Result struct {
	Kind Kind
	// Items holds the slots to draw for full and all-expressions updates, and
	// only the slots whose value changed for a values update.
	Items []Display
	// Shown is the complete list on screen after the update.
	Shown []Display
}

// Stabilizer holds the last shown ranking and decides per cycle whether it
// should be replaced. It is owned by a single detection loop and is not safe
// for concurrent use.
type Stabilizer struct {
	confidenceThreshold float64
	changeThreshold     float64
	showAll             bool
	topK                int

	// displayed is the ranking captured at the last full update. Values
	// updates never touch it, so hysteresis compares against that snapshot.
	displayed []Ranked
}

// New creates a Stabilizer with default thresholds.
func New(opts ...Option) *Stabilizer {
	s := &Stabilizer{
		confidenceThreshold: DefaultConfidenceThreshold,
		changeThreshold:     DefaultChangeThreshold,
		topK:                DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update consumes one averaged vector and returns what to render.
func (s *Stabilizer) Update(avg expression.Vector) Result {
	if s.showAll {
		all := RankAll(avg)
		items := toDisplay(all)
		return Result{Kind: KindAllExpressions, Items: items, Shown: items}
	}

	candidate := Rank(avg, s.confidenceThreshold)
	if len(candidate) > s.topK {
		candidate = candidate[:s.topK]
	}

	if len(candidate) == 0 {
		s.displayed = nil
		return Result{Kind: KindNoStrongExpression}
	}

	if ShouldReplace(s.displayed, candidate, s.changeThreshold) {
		s.displayed = append([]Ranked(nil), candidate...)
		items := toDisplay(candidate)
		return Result{Kind: KindFullUpdate, Items: items, Shown: items}
	}

	return s.refreshValues(candidate)
}

// refreshValues updates the numbers of categories already on screen. The
// set and order of shown categories stay as they are.
func (s *Stabilizer) refreshValues(candidate []Ranked) Result {
	shown := toDisplay(s.displayed)
	var items []Display
	for _, c := range candidate {
		for i := range shown {
			if shown[i].Category != c.Category {
				continue
			}
			shown[i].Confidence = c.Confidence
			items = append(items, shown[i])
			break
		}
	}
	return Result{Kind: KindValuesUpdate, Items: items, Shown: shown}
}

// ShouldReplace is the hysteresis gate. It compares prev and candidate
// position by position and asks for a replacement when prev has no entry at
// a position, or when the category at a position differs and its confidence
// moved by more than threshold. Reordering of the same categories with small
// deltas keeps the current display.
func ShouldReplace(prev, candidate []Ranked, threshold float64) bool {
	if len(prev) == 0 {
		return true
	}
	for i := range candidate {
		if i >= len(prev) {
			return true
		}
		if prev[i].Category == candidate[i].Category {
			continue
		}
		if math.Abs(candidate[i].Confidence-prev[i].Confidence) > threshold {
			return true
		}
	}
	return false
}

// Rank returns every category whose confidence is strictly above threshold,
// sorted by confidence descending. Ties keep enumeration order.
func Rank(v expression.Vector, threshold float64) []Ranked {
	out := make([]Ranked, 0, expression.Count)
	for _, c := range expression.Categories() {
		conf := expression.Clamp(v.Get(c))
		if conf > threshold {
			out = append(out, Ranked{Category: c, Confidence: conf})
		}
	}
	sortRanked(out)
	return out
}

// RankAll returns all categories sorted by confidence descending, with no
// threshold applied.
func RankAll(v expression.Vector) []Ranked {
	out := make([]Ranked, 0, expression.Count)
	for _, c := range expression.Categories() {
		out = append(out, Ranked{Category: c, Confidence: expression.Clamp(v.Get(c))})
	}
	sortRanked(out)
	return out
}

func sortRanked(rs []Ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Confidence > rs[j].Confidence
	})
}

func toDisplay(rs []Ranked) []Display {
	out := make([]Display, len(rs))
	for i, r := range rs {
		out[i] = Display{
			Category:   r.Category,
			Confidence: r.Confidence,
			Icon:       r.Category.Icon(),
			Slot:       i,
		}
	}
	return out
}

// Displayed returns a copy of the ranking captured at the last full update.
func (s *Stabilizer) Displayed() []Ranked {
	return append([]Ranked(nil), s.displayed...)
}

// Reset forgets the shown ranking, so the next Update is a full update.
func (s *Stabilizer) Reset() { s.displayed = nil }

// SetShowAll toggles the all-expressions view.
func (s *Stabilizer) SetShowAll(enabled bool) { s.showAll = enabled }

// ShowAll reports whether the all-expressions view is enabled.
func (s *Stabilizer) ShowAll() bool { return s.showAll }

// SetConfidenceThreshold changes the display floor. Values outside [0,1]
// are ignored.
func (s *Stabilizer) SetConfidenceThreshold(threshold float64) {
	WithConfidenceThreshold(threshold)(s)
}

// ConfidenceThreshold returns the display floor.
func (s *Stabilizer) ConfidenceThreshold() float64 { return s.confidenceThreshold }

// SetChangeThreshold changes the hysteresis delta. Values outside [0,1]
// are ignored.
func (s *Stabilizer) SetChangeThreshold(threshold float64) {
	WithChangeThreshold(threshold)(s)
}

// ChangeThreshold returns the hysteresis delta.
func (s *Stabilizer) ChangeThreshold() float64 { return s.changeThreshold }
