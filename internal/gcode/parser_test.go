package gcode

import (
	"testing"
)

func TestParseGCode_Empty(t *testing.T) {
	if moves := ParseGCode(""); len(moves) != 0 {
		t.Errorf("expected 0 moves for empty input, got %d", len(moves))
	}
	code := "; a comment\n(parenthetical comment)\n"
	if moves := ParseGCode(code); len(moves) != 0 {
		t.Errorf("expected 0 moves for comments-only input, got %d", len(moves))
	}
}

func TestParseGCode_SingleMoves(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		want       MoveType
		toX, toY   float64
		toZ        float64
		feed       float64
		wantLength int
	}{
		{"rapid", "G0 X10.000 Y20.000", MoveRapid, 10, 20, 0, 0, 1},
		{"rapid padded", "G00 X10 Y20", MoveRapid, 10, 20, 0, 0, 1},
		{"feed", "G1 X100 Y0 F1500.0", MoveFeed, 100, 0, 0, 1500, 1},
		{"no space", "G1X5Y6", MoveFeed, 5, 6, 0, 0, 1},
		{"inline comment", "G1 X50 Y50 F1500 ; cut", MoveFeed, 50, 50, 0, 1500, 1},
		{"mach3 comment", "G1 X50 (go right) Y50", MoveFeed, 50, 50, 0, 0, 1},
		{"negative", "G0 X-3.000 Y-3.000", MoveRapid, -3, -3, 0, 0, 1},
		{"leading dot", "G1 X.5 Y-.25", MoveFeed, 0.5, -0.25, 0, 0, 1},
		{"plunge", "G1 Z-6 F500", MovePlunge, 0, 0, -6, 500, 1},
		{"rapid up", "G0 Z5", MoveRetract, 0, 0, 5, 0, 1},
		{"not a move", "G17", MoveRapid, 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves := ParseGCode(tt.code)
			if len(moves) != tt.wantLength {
				t.Fatalf("expected %d moves, got %d", tt.wantLength, len(moves))
			}
			if tt.wantLength == 0 {
				return
			}
			m := moves[0]
			if m.Type != tt.want {
				t.Errorf("type = %s, want %s", m.Type, tt.want)
			}
			if m.ToX != tt.toX || m.ToY != tt.toY || m.ToZ != tt.toZ {
				t.Errorf("to = (%.3f, %.3f, %.3f), want (%.3f, %.3f, %.3f)", m.ToX, m.ToY, m.ToZ, tt.toX, tt.toY, tt.toZ)
			}
			if m.FeedRate != tt.feed {
				t.Errorf("feed = %.1f, want %.1f", m.FeedRate, tt.feed)
			}
		})
	}
}

func TestParseGCode_StateTracking(t *testing.T) {
	code := `G90
M3 S18000
G0 X10.000 Y20.000
G0 Z5.000
G1 Z-6.000 F500.0
G1 X100.000 Y20.000 F1500.0
X100.000 Y80.000
G0 Z5.000
`
	moves := ParseGCode(code)
	if len(moves) != 6 {
		t.Fatalf("expected 6 moves, got %d", len(moves))
	}

	if moves[2].Type != MovePlunge || moves[2].FromX != 10 || moves[2].FromY != 20 {
		t.Errorf("move 2: expected plunge at (10,20), got %s at (%.3f, %.3f)", moves[2].Type, moves[2].FromX, moves[2].FromY)
	}
	if moves[3].FromX != 10 || moves[3].ToX != 100 {
		t.Errorf("move 3: expected X from 10 to 100, got %.3f to %.3f", moves[3].FromX, moves[3].ToX)
	}

	// Modal G1 with sticky feed
	m := moves[4]
	if m.Type != MoveFeed || m.FromY != 20 || m.ToY != 80 || m.FeedRate != 1500 {
		t.Errorf("move 4: got %+v", m)
	}
	if m.Line != 7 {
		t.Errorf("move 4: expected source line 7, got %d", m.Line)
	}
	if moves[5].Type != MoveRetract {
		t.Errorf("move 5: expected retract, got %s", moves[5].Type)
	}
}

func TestParseGCode_CoordinateBeforeMotion(t *testing.T) {
	// No motion mode yet, so a bare coordinate line is ignored
	if moves := ParseGCode("X10 Y10\nG0 X1\n"); len(moves) != 1 {
		t.Errorf("expected 1 move, got %d", len(moves))
	}
}

func TestStripComments(t *testing.T) {
	tests := map[string]string{
		"G1 X1 ; note":        "G1 X1",
		"(header)":            "",
		"G0 (a) X1 (b) Y2":    "G0  X1  Y2",
		"G0 X1 (unterminated": "G0 X1",
		"   G1 Z-1   ":        "G1 Z-1",
	}
	for in, want := range tests {
		if got := stripComments(in); got != want {
			t.Errorf("stripComments(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyMove(t *testing.T) {
	tests := []struct {
		name    string
		isRapid bool
		fromZ   float64
		toZ     float64
		fromX   float64
		fromY   float64
		toX     float64
		toY     float64
		want    MoveType
	}{
		{"rapid XY", true, 5, 5, 0, 0, 10, 20, MoveRapid},
		{"rapid retract", true, -6, 5, 10, 20, 10, 20, MoveRetract},
		{"feed XY", false, -6, -6, 0, 0, 100, 0, MoveFeed},
		{"plunge", false, 5, -6, 10, 20, 10, 20, MovePlunge},
		{"retract feed", false, -6, 0, 10, 20, 10, 20, MoveRetract},
		{"feed with slight Z", false, -6, -6.0001, 0, 0, 100, 0, MoveFeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyMove(tt.isRapid, tt.fromZ, tt.toZ, tt.fromX, tt.fromY, tt.toX, tt.toY); got != tt.want {
				t.Errorf("classifyMove() = %s, want %s", got, tt.want)
			}
		})
	}
}
