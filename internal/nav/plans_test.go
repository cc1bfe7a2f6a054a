package nav

import (
	"fmt"
	"strings"
	"testing"
)

// Every list, asymmetries included.
var goldenPlans = map[[2]int]string{
	{0, 2}:   "N NNE NNW ride @0,0 @-1,0 @1,0 NE NW ENE WNW E W ESE WSW SE SW SSE SSW S",
	{1, 2}:   "NNE N NE ride @0,0 @-1,0 @1,0 ENE NNW E NW ESE WNW SE W SSE WSW S SW SSW",
	{2, 2}:   "NE ENE NNE ride @0,0 @-1,0 @0,-1 E N ESE NNW SE NW SSE WNW S W SSW WSW SW",
	{2, 1}:   "ENE NE E ride @0,0 @0,1 @0,-1 ESE NNE SE N SSE NNW S NW SSW WNW SW W WSW",
	{2, 0}:   "E ESE ENE ride @0,0 @0,1 @0,-1 SE NE SSE NNE S N SSW NNW SW NW WSW WNW W",
	{2, -1}:  "ESE E SE ride @0,0 @0,1 @0,-1 SSE ENE S NE SSW NNE SW N WSW NNW W NW WNW",
	{2, -2}:  "SE SSE ESE ride @0,0 @0,1 @-1,0 S E SSW ENE SW NE WSW NNE W N WNW NNW NW",
	{1, -2}:  "SSE SE S ride @0,0 @1,0 @-1,0 SSW ESE SW E WSW ENE W NE WNW NNE NW N NNW",
	{0, -2}:  "S SSW SSE ride @0,0 @1,0 @-1,0 SW SE WSW ESE W E WNW ENE NW NE NNW NNE N",
	{-1, -2}: "SSW S SW ride @0,0 @1,0 @-1,0 WSW SSE W SE WNW ESE NW E NNW ENE N NE NNE",
	{-2, -2}: "SW WSW SSW ride @0,0 @0,1 @1,0 W S WNW SSE NW SE NNW ESE N E NNE ENE NE",
	{-2, -1}: "WSW SW W ride @0,0 @0,1 @0,-1 WNW SSW NW S NNW SSE N SE NNE ESE NE E ENE",
	{-2, 0}:  "W WNW WSW ride @0,0 @0,1 @0,-1 NW SW NNW SSW N S NNE SSE NE SE ENE ESE E",
	{-2, 1}:  "WNW W NW ride @0,0 @0,1 @0,-1 NNW WSW N SW NNE SSW NE S ENE SSE E SE ESE",
	{-2, 2}:  "NW NNW WNW ride @0,0 @1,0 @0,-1 N W NNE WSW NE SW ENE SSW E S ESE SSE SE",
	{-1, 2}:  "NNW NW N ride @0,0 @1,0 @-1,0 NNE WNW NE W ENE WSW E SW ESE SSW SE S SSE",
}

func renderActions(actions []action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.kind {
		case actStep:
			parts = append(parts, a.heading.String())
		case actRide:
			parts = append(parts, "ride")
		case actLeap:
			parts = append(parts, fmt.Sprintf("@%d,%d", a.dx, a.dy))
		}
	}
	return strings.Join(parts, " ")
}

func TestPlansMatchGoldenOrder(t *testing.T) {
	if len(goldenPlans) != len(plans) {
		t.Fatalf("goldenPlans has %d plans, table has %d", len(goldenPlans), len(plans))
	}
	for i, p := range plans {
		want, ok := goldenPlans[[2]int{p.dx, p.dy}]
		if !ok {
			t.Fatalf("plan %d: unexpected offset (%d,%d)", i, p.dx, p.dy)
		}
		if got := renderActions(p.actions); got != want {
			t.Fatalf("plan (%d,%d):\n got %s\nwant %s", p.dx, p.dy, got, want)
		}
	}
}

func TestPlansAsymmetricLeaps(t *testing.T) {
	leaps := func(dx, dy int) [][2]int {
		for _, p := range plans {
			if p.dx != dx || p.dy != dy {
				continue
			}
			var out [][2]int
			for _, a := range p.actions {
				if a.kind == actLeap {
					out = append(out, [2]int{a.dx, a.dy})
				}
			}
			return out
		}
		t.Fatalf("no plan for (%d,%d)", dx, dy)
		return nil
	}
	cases := []struct {
		dx, dy int
		want   [][2]int
	}{
		{2, 2, [][2]int{{0, 0}, {-1, 0}, {0, -1}}},
		{-2, 2, [][2]int{{0, 0}, {1, 0}, {0, -1}}},
		{2, 1, [][2]int{{0, 0}, {0, 1}, {0, -1}}},
		{-2, 1, [][2]int{{0, 0}, {0, 1}, {0, -1}}},
		{-2, -2, [][2]int{{0, 0}, {0, 1}, {1, 0}}},
	}
	for _, tc := range cases {
		got := leaps(tc.dx, tc.dy)
		if fmt.Sprint(got) != fmt.Sprint(tc.want) {
			t.Fatalf("plan (%d,%d) leaps=%v want %v", tc.dx, tc.dy, got, tc.want)
		}
	}
}
