package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// MoveType classifies a parsed tool movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0 in the XY plane
	MoveFeed                    // G1 cutting move
	MovePlunge                  // G1 with Z going down and no XY travel
	MoveRetract                 // Z going up
)

func (t MoveType) String() string {
	switch t {
	case MoveRapid:
		return "rapid"
	case MoveFeed:
		return "feed"
	case MovePlunge:
		return "plunge"
	case MoveRetract:
		return "retract"
	}
	return "unknown"
}

// Move is one parsed G0/G1 movement in absolute coordinates.
type Move struct {
	Line     int // 1-based source line
	Type     MoveType
	FromX    float64
	FromY    float64
	FromZ    float64
	ToX      float64
	ToY      float64
	ToZ      float64
	FeedRate float64
}

var (
	wordRe    = regexp.MustCompile(`([XYZF])\s*(-?\d*\.?\d+)`)
	commandRe = regexp.MustCompile(`^G0*([01])(\D|$)`)
)

// ParseGCode parses G-code into moves, tracking absolute position, the
// sticky feed rate and the modal motion command. Lines that start with a
// coordinate word repeat the previous G0/G1.
func ParseGCode(code string) []Move {
	var moves []Move

	curX, curY, curZ := 0.0, 0.0, 0.0
	curFeed := 0.0
	motion := -1

	for n, line := range strings.Split(code, "\n") {
		line = strings.ToUpper(stripComments(line))
		if line == "" {
			continue
		}

		if m := commandRe.FindStringSubmatch(line); m != nil {
			motion = int(m[1][0] - '0')
		} else if motion < 0 || !strings.ContainsAny(line[:1], "XYZ") {
			continue
		}

		newX, newY, newZ, newFeed := curX, curY, curZ, curFeed
		for _, w := range wordRe.FindAllStringSubmatch(line, -1) {
			val, err := strconv.ParseFloat(w[2], 64)
			if err != nil {
				continue
			}
			switch w[1] {
			case "X":
				newX = val
			case "Y":
				newY = val
			case "Z":
				newZ = val
			case "F":
				newFeed = val
			}
		}

		moves = append(moves, Move{
			Line:     n + 1,
			Type:     classifyMove(motion == 0, curZ, newZ, curX, curY, newX, newY),
			FromX:    curX,
			FromY:    curY,
			FromZ:    curZ,
			ToX:      newX,
			ToY:      newY,
			ToZ:      newZ,
			FeedRate: newFeed,
		})
		curX, curY, curZ, curFeed = newX, newY, newZ, newFeed
	}

	return moves
}

// stripComments removes ";" line comments and "( )" comments.
func stripComments(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	for {
		start := strings.Index(line, "(")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], ")")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+1:]
	}
	return strings.TrimSpace(line)
}

// classifyMove determines the MoveType based on movement characteristics.
func classifyMove(isRapid bool, fromZ, toZ, fromX, fromY, toX, toY float64) MoveType {
	zDelta := toZ - fromZ
	hasXY := fromX != toX || fromY != toY

	switch {
	case isRapid:
		if zDelta > 0 {
			return MoveRetract
		}
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		return MovePlunge
	case zDelta > 0.001 && !hasXY:
		return MoveRetract
	default:
		return MoveFeed
	}
}
