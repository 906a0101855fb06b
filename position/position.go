package position

// Position is the resolved on-screen placement of an ad. The integer values
// are the wire enum used by the ad server's "position" field and must stay in
// this order.
type Position int

const (
	Unknown Position = iota
	AboveTheFold
	BelowTheFold
	DependOnScreenSize
	Header
	Footer
	Sidebar
	FullScreen
)

func (p Position) String() string {
	switch p {
	case AboveTheFold:
		return "above_the_fold"
	case BelowTheFold:
		return "below_the_fold"
	case DependOnScreenSize:
		return "depend_on_screen_size"
	case Header:
		return "header"
	case Footer:
		return "footer"
	case Sidebar:
		return "sidebar"
	case FullScreen:
		return "full_screen"
	}
	return "unknown"
}

// FromInt maps a wire integer onto a Position. Out-of-range values collapse to
// Unknown rather than erroring; servers have shipped garbage here before.
func FromInt(v int) Position {
	if v < int(Unknown) || v > int(FullScreen) {
		return Unknown
	}
	return Position(v)
}

// FromString maps a configuration name onto a Position, for the per-ad-type
// defaults in the config file.
func FromString(s string) Position {
	for p := Unknown; p <= FullScreen; p++ {
		if p.String() == s {
			return p
		}
	}
	return Unknown
}
