package geo

import (
	"math"
	"testing"
)

func TestInitialBearing(t *testing.T) {
	cases := []struct {
		from, to Point
		want     float64 // degrees
	}{
		{Point{0, 0}, Point{0, 1}, 90},
		{Point{0, 0}, Point{1, 0}, 0},
		{Point{0, 0}, Point{1, 1}, 45},
		{Point{0, 0}, Point{-1, 1}, 135},
		{Point{0, 0}, Point{-1, 0}, 180},
		{Point{0, 0}, Point{-1, -1}, 225},
		{Point{0, 0}, Point{0, -1}, 270},
		{Point{0, 0}, Point{1, -1}, 315},
	}

	for _, c := range cases {
		got := InitialBearing(c.from, c.to) * 180 / math.Pi
		if got < c.want-1 || got > c.want+1 {
			t.Errorf("InitialBearing(%v, %v) == %f, want %f", c.from, c.to, got, c.want)
		}
	}
}

func TestRhumbBearing(t *testing.T) {
	cases := []struct {
		from, to Point
		want     float64 // degrees
	}{
		{Point{0, 0}, Point{0, 1}, 90},
		{Point{0, 0}, Point{1, 0}, 0},
		{Point{0, 0}, Point{0, -1}, 270},
		{Point{0, 0}, Point{-1, 0}, 180},
		// Crossing the antimeridian goes the short way.
		{Point{0, 179.5}, Point{0, -179.5}, 90},
		{Point{0, -179.5}, Point{0, 179.5}, 270},
	}

	for _, c := range cases {
		got := RhumbBearing(c.from, c.to) * 180 / math.Pi
		if got < c.want-1 || got > c.want+1 {
			t.Errorf("RhumbBearing(%v, %v) == %f, want %f", c.from, c.to, got, c.want)
		}
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		from, to Point
		want     float64 // meters
	}{
		{Point{0, 0}, Point{0, 0}, 0},
		{Point{0, 0}, Point{0, 1}, 111195},
		{Point{0, 0}, Point{1, 0}, 111195},
		{Point{80, 90}, Point{80, 91}, 19309},
	}

	for _, c := range cases {
		got := Distance(c.from, c.to)
		if math.Abs(got-c.want) > c.want*0.01+1 {
			t.Errorf("Distance(%v, %v) == %f, want %f", c.from, c.to, got, c.want)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct{ a, b Point }{
		{Point{0, 0}, Point{10, 20}},
		{Point{59.3, 18.1}, Point{57.7, 11.9}},
		{Point{-35, 150}, Point{40, -70}},
		{Point{0, 179}, Point{0, -179}},
	}

	for _, p := range pairs {
		if d1, d2 := Distance(p.a, p.b), Distance(p.b, p.a); math.Abs(d1-d2) > 1e-6 {
			t.Errorf("Distance not symmetric for %v, %v: %f != %f", p.a, p.b, d1, d2)
		}
		if d1, d2 := RhumbDistance(p.a, p.b), RhumbDistance(p.b, p.a); math.Abs(d1-d2) > 1e-6 {
			t.Errorf("RhumbDistance not symmetric for %v, %v: %f != %f", p.a, p.b, d1, d2)
		}
	}
}

func TestRhumbDistanceEquator(t *testing.T) {
	// On the equator rhumb line and great circle coincide.
	got := RhumbDistance(Point{0, 0}, Point{0, 1})
	if math.Abs(got-111195) > 1112 {
		t.Errorf("RhumbDistance == %f, want ~111195", got)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{-7 * math.Pi, math.Pi},
	}

	for _, c := range cases {
		got := NormalizeAngle(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%f) == %f, want %f", c.in, got, c.want)
		}
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("NormalizeAngle(%f) == %f, outside [0, 2π)", c.in, got)
		}
		if again := NormalizeAngle(got); math.Abs(again-got) > 1e-12 {
			t.Errorf("NormalizeAngle not idempotent at %f: %f != %f", c.in, again, got)
		}
	}
}

func TestAngleDifference(t *testing.T) {
	for _, a := range []float64{0, 1, math.Pi, 5, 2 * math.Pi} {
		if d := AngleDifference(a, a); d != 0 {
			t.Errorf("AngleDifference(%f, %f) == %f, want 0", a, a, d)
		}
	}

	cases := []struct{ a, b, want float64 }{
		{math.Pi / 2, 0, math.Pi / 2},
		{0, math.Pi / 2, -math.Pi / 2},
		{0.1, 2*math.Pi - 0.1, 0.2},          // wraps across north
		{2*math.Pi - 0.1, 0.1, -0.2},         // and back
		{math.Pi, 0, math.Pi},                // boundary lands on +π
		{3 * math.Pi / 2, math.Pi / 2, math.Pi},
	}

	for _, c := range cases {
		got := AngleDifference(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AngleDifference(%f, %f) == %f, want %f", c.a, c.b, got, c.want)
		}
		if got <= -math.Pi || got > math.Pi {
			t.Errorf("AngleDifference(%f, %f) == %f, outside (−π, π]", c.a, c.b, got)
		}
	}
}

func TestCrossTrackDistance(t *testing.T) {
	from := Point{0, 0}
	to := Point{0, 2}

	// On the path.
	if d := CrossTrackDistance(Point{0, 1}, from, to); math.Abs(d) > 1 {
		t.Errorf("on-path cross track == %f, want ~0", d)
	}

	// North of an eastbound path is left of it: negative.
	if d := CrossTrackDistance(Point{0.1, 1}, from, to); d >= 0 {
		t.Errorf("north-of-path cross track == %f, want negative", d)
	}

	// South is right: positive.
	if d := CrossTrackDistance(Point{-0.1, 1}, from, to); d <= 0 {
		t.Errorf("south-of-path cross track == %f, want positive", d)
	}

	// Magnitude: 0.1° of latitude off a path along the equator.
	d := CrossTrackDistance(Point{0.1, 1}, from, to)
	if math.Abs(math.Abs(d)-11120) > 120 {
		t.Errorf("cross track magnitude == %f, want ~11120", math.Abs(d))
	}
}
