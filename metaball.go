package metaball

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Ball is a point source of a metaball field moving on an elliptical orbit.
//
//	position(t) = Center + Orbit.X*cos(w*t+Phase) on X, Orbit.Y*sin(w*t+Phase) on Y
//	              and Orbit.Z*sin(2*(w*t+Phase)) on Z.
//
// A zero Orbit keeps the ball still at Center.
type Ball struct {
	Center ms3.Vec
	Orbit  ms3.Vec
	// Speed is the angular speed w in radians per unit of time.
	Speed float32
	Phase float32
}

// At returns the ball position at time t.
func (b Ball) At(t float32) ms3.Vec {
	s, c := math32.Sincos(b.Speed*t + b.Phase)
	s2 := 2 * s * c // sin(2a)
	return ms3.Vec{
		X: b.Center.X + b.Orbit.X*c,
		Y: b.Center.Y + b.Orbit.Y*s,
		Z: b.Center.Z + b.Orbit.Z*s2,
	}
}

// minDist2 keeps the inverse-square falloff finite on top of a source.
const minDist2 = 1e-12

// Metaballs is a field defined as the sum of inverse square falloffs
// centered at moving balls:
//
//	F(p) = R² * Σ 1/|c_i - p|² - 1
//
// A single ball produces a sphere of radius R.
type Metaballs struct {
	balls    []Ball
	radius   float32
	timeStep float32
	t        float32
	// positions of balls at time t, refreshed by Update.
	pos []ms3.Vec
}

// NewMetaballs returns a metaball field with the given balls placed at
// time zero. Each call to Update advances time by timeStep.
func NewMetaballs(radius, timeStep float32, balls ...Ball) (*Metaballs, error) {
	switch {
	case len(balls) == 0:
		return nil, errors.New("metaball: need at least one ball")
	case radius <= 0 || math32.IsInf(radius, 0) || math32.IsNaN(radius):
		return nil, errors.New("metaball: invalid ball radius")
	case timeStep < 0 || math32.IsInf(timeStep, 0) || math32.IsNaN(timeStep):
		return nil, errors.New("metaball: invalid time step")
	}
	m := &Metaballs{
		balls:    append([]Ball(nil), balls...),
		radius:   radius,
		timeStep: timeStep,
		pos:      make([]ms3.Vec, len(balls)),
	}
	m.place()
	return m, nil
}

// Update advances time by one step and moves the balls.
func (m *Metaballs) Update() {
	m.t += m.timeStep
	m.place()
}

// Time returns the field's current time.
func (m *Metaballs) Time() float32 { return m.t }

// Positions returns the ball positions at the current time. The returned
// slice is owned by m and changes on Update.
func (m *Metaballs) Positions() []ms3.Vec { return m.pos }

func (m *Metaballs) place() {
	for i, b := range m.balls {
		m.pos[i] = b.At(m.t)
	}
}

// Evaluate implements [Field].
func (m *Metaballs) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(dist) < len(pos) {
		return ErrShortBuffer
	}
	r2 := m.radius * m.radius
	for i, p := range pos {
		var sum float32
		for _, c := range m.pos {
			d := ms3.Sub(c, p)
			sum += 1 / math32.Max(d.X*d.X+d.Y*d.Y+d.Z*d.Z, minDist2)
		}
		dist[i] = r2*sum - 1
	}
	return nil
}

// DefaultBalls returns three balls orbiting the origin, a scene that fits
// comfortably within a half extent of 5.
func DefaultBalls() []Ball {
	return []Ball{
		{Orbit: ms3.Vec{X: 2, Y: 1.5, Z: 0.5}, Speed: 1.3},
		{Orbit: ms3.Vec{X: 1.5, Y: 2, Z: 1}, Speed: 0.9, Phase: 2.1},
		{Center: ms3.Vec{Z: 0.5}, Orbit: ms3.Vec{X: 1, Y: 1, Z: 1.5}, Speed: 1.7, Phase: 4.2},
	}
}
