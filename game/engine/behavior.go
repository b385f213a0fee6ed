package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/wricardo/smartroad/game/geom"
)

var (
	ErrUnknownHeading  = errors.New("unknown heading")
	ErrUnknownBehavior = errors.New("unknown behavior code")
)

// Heading is one of the four cardinal travel directions.
type Heading uint8

const (
	North Heading = iota
	South
	East
	West
	headingCount
)

var headingNames = [headingCount]string{
	North: "North",
	South: "South",
	East:  "East",
	West:  "West",
}

// AllHeadings lists the headings in declaration order.
var AllHeadings = []Heading{North, South, East, West}

func (h Heading) String() string {
	if h >= headingCount {
		return fmt.Sprintf("Heading(%d)", uint8(h))
	}
	return headingNames[h]
}

// Valid reports whether h is one of the four declared headings.
func (h Heading) Valid() bool {
	return h < headingCount
}

// Vertical reports whether h is North or South.
func (h Heading) Vertical() bool {
	return h == North || h == South
}

// Perpendicular reports whether h and other lie on different axes.
func (h Heading) Perpendicular(other Heading) bool {
	return h.Vertical() != other.Vertical()
}

// Opposite returns the reverse direction.
func (h Heading) Opposite() Heading {
	switch h {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	log.Panicf("opposite of invalid heading %d", uint8(h))
	return h
}

// Delta returns the displacement of travelling dist units along h.
// Screen coordinates grow downwards, so North decreases Y.
func (h Heading) Delta(dist float64) geom.Vec2 {
	switch h {
	case North:
		return geom.Vec2{Y: -dist}
	case South:
		return geom.Vec2{Y: dist}
	case East:
		return geom.Vec2{X: dist}
	case West:
		return geom.Vec2{X: -dist}
	}
	log.Panicf("delta of invalid heading %d", uint8(h))
	return geom.Vec2{}
}

func (h Heading) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHeading, uint8(h))
	}
	return []byte(h.String()), nil
}

func (h *Heading) UnmarshalText(text []byte) error {
	parsed, err := ParseHeading(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHeading converts a heading name into a Heading. Matching is case
// insensitive and accepts the single-letter forms N, S, E and W.
func ParseHeading(s string) (Heading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "south", "s":
		return South, nil
	case "east", "e":
		return East, nil
	case "west", "w":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeading, s)
}

// Behavior is a lane behaviour code. The first letter names the side the
// vehicle enters from and the second the direction it leaves in.
type Behavior uint8

const (
	BehaviorRU Behavior = iota
	BehaviorRL
	BehaviorRD
	BehaviorDU
	BehaviorDL
	BehaviorDR
	BehaviorLU
	BehaviorLR
	BehaviorLD
	BehaviorUD
	BehaviorUR
	BehaviorUL
	behaviorCount
)

type behaviorInfo struct {
	name  string
	entry Heading // travel direction at spawn
	exit  Heading // travel direction after the turn, if any
	// lane indices on the fourteen-spacing grid
	entryLane int
	exitLane  int
}

var behaviors = [behaviorCount]behaviorInfo{
	BehaviorRU: {"RU", West, North, 4, 9},
	BehaviorRL: {"RL", West, West, 5, 5},
	BehaviorRD: {"RD", West, South, 6, 6},
	BehaviorDU: {"DU", North, North, 8, 8},
	BehaviorDL: {"DL", North, West, 7, 6},
	BehaviorDR: {"DR", North, East, 9, 9},
	BehaviorLU: {"LU", East, North, 7, 7},
	BehaviorLR: {"LR", East, East, 8, 8},
	BehaviorLD: {"LD", East, South, 9, 4},
	BehaviorUD: {"UD", South, South, 5, 5},
	BehaviorUR: {"UR", South, East, 6, 7},
	BehaviorUL: {"UL", South, West, 4, 4},
}

// AllBehaviors lists the twelve behaviour codes in declaration order.
var AllBehaviors = []Behavior{
	BehaviorRU, BehaviorRL, BehaviorRD,
	BehaviorDU, BehaviorDL, BehaviorDR,
	BehaviorLU, BehaviorLR, BehaviorLD,
	BehaviorUD, BehaviorUR, BehaviorUL,
}

func (b Behavior) String() string {
	if b >= behaviorCount {
		return fmt.Sprintf("Behavior(%d)", uint8(b))
	}
	return behaviors[b].name
}

// Valid reports whether b is one of the twelve declared codes.
func (b Behavior) Valid() bool {
	return b < behaviorCount
}

// Heading returns the direction of travel at spawn.
func (b Behavior) Heading() Heading {
	return b.info().entry
}

// Exit returns the direction of travel when leaving the intersection.
func (b Behavior) Exit() Heading {
	return b.info().exit
}

// Turns reports whether the code changes heading inside the intersection.
func (b Behavior) Turns() bool {
	info := b.info()
	return info.entry != info.exit
}

func (b Behavior) info() behaviorInfo {
	if !b.Valid() {
		log.Panicf("invalid behavior code %d", uint8(b))
	}
	return behaviors[b]
}

func (b Behavior) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBehavior, uint8(b))
	}
	return []byte(b.String()), nil
}

func (b *Behavior) UnmarshalText(text []byte) error {
	parsed, err := ParseBehavior(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBehavior converts a two-letter code such as "RU" into a Behavior.
func ParseBehavior(s string) (Behavior, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for _, b := range AllBehaviors {
		if behaviors[b].name == code {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBehavior, s)
}

// BehaviorsFor returns the codes whose vehicles spawn travelling along h.
func BehaviorsFor(h Heading) []Behavior {
	return lo.Filter(AllBehaviors, func(b Behavior, _ int) bool {
		return b.Heading() == h
	})
}
