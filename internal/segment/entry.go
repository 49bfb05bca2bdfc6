package segment

// SegmentKind distinguishes spec.md §3's two segment kinds: a closure lifted
// from a marker call (`function`) versus one lifted from a JSX attribute
// ending in `$` (`event`).
type SegmentKind uint8

const (
	SegmentFunction SegmentKind = iota
	SegmentEvent
)

// EntrySegmentsConstant is spec.md §4.7's fixed grouping name used by the
// inline/hoist/single policies.
const EntrySegmentsConstant = "entry_segments"

// EntryInput is everything an entry policy needs about one segment and its
// enclosing naming-context stack (spec.md §4.7).
type EntryInput struct {
	HasCaptures        bool
	Kind               SegmentKind
	Origin             string
	FirstStackToken    string
	HasFirstStackToken bool
}

// ChooseEntry implements spec.md §4.7's five policies, keyed by the
// strategy's name (config.EntryStrategy.String()).
//
// The smart policy's table text ("if the segment has no captures and is not
// an event handler: none") and its literal scenario S5 ("three event
// handlers, none capturing locals" all receive entry=none, "because event
// handlers without captures bypass grouping") disagree on whether an
// uncaptured event handler groups. S5 is one of spec.md §8's literal
// end-to-end scenarios, so it is treated as authoritative over the looser
// prose: an uncaptured segment always gets none regardless of kind.
func ChooseEntry(strategy string, in EntryInput) (name string, isEntry bool) {
	switch strategy {
	case "inline", "hoist", "single":
		return EntrySegmentsConstant, true

	case "segment", "hook":
		return "", false

	case "component":
		if in.HasFirstStackToken {
			return in.Origin + "_entry_" + in.FirstStackToken, true
		}
		return EntrySegmentsConstant, true

	case "smart":
		if !in.HasCaptures {
			return "", false
		}
		if in.HasFirstStackToken {
			return in.Origin + "_entry_" + in.FirstStackToken, true
		}
		return "", false

	default:
		return "", false
	}
}
