package game

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"time"
)

// SpinCooldown is how long a player waits between wheel spins.
const SpinCooldown = 24 * time.Hour

// WheelSegment represents a single segment on the wheel
type WheelSegment struct {
	ID     int    `json:"id"`
	Reward int64  `json:"reward"`
	Color  string `json:"color"`
	Weight int64  `json:"weight"` // relative, need not sum to anything
	Label  string `json:"label"`
}

// WheelSpin is the outcome of one spin.
type WheelSpin struct {
	Segment   WheelSegment `json:"segment"`
	SpinAngle float64      `json:"spin_angle"` // final angle for the frontend animation
}

// Wheel picks weighted segments with a cryptographically secure source.
type Wheel struct {
	Segments []WheelSegment
	rand     io.Reader
}

var ErrEmptyWheel = errors.New("wheel has no weighted segments")

// DefaultWheelSegments returns the default wheel configuration
func DefaultWheelSegments() []WheelSegment {
	return []WheelSegment{
		{ID: 1, Reward: 50, Color: "#4a4a4a", Weight: 300, Label: "50"},
		{ID: 2, Reward: 100, Color: "#e74c3c", Weight: 250, Label: "100"},
		{ID: 3, Reward: 200, Color: "#f39c12", Weight: 200, Label: "200"},
		{ID: 4, Reward: 500, Color: "#2ecc71", Weight: 120, Label: "500"},
		{ID: 5, Reward: 1000, Color: "#3498db", Weight: 80, Label: "1K"},
		{ID: 6, Reward: 2500, Color: "#9b59b6", Weight: 40, Label: "2.5K"},
		{ID: 7, Reward: 5000, Color: "#f1c40f", Weight: 10, Label: "5K"},
	}
}

func NewWheel(segments []WheelSegment) *Wheel {
	return &Wheel{Segments: segments, rand: rand.Reader}
}

// WithRand replaces the random source, for tests.
func (w *Wheel) WithRand(r io.Reader) *Wheel {
	return &Wheel{Segments: w.Segments, rand: r}
}

// Spin draws one segment in proportion to its weight.
func (w *Wheel) Spin() (WheelSpin, error) {
	var total int64
	for _, s := range w.Segments {
		if s.Weight > 0 {
			total += s.Weight
		}
	}
	if total == 0 {
		return WheelSpin{}, ErrEmptyWheel
	}

	n, err := rand.Int(w.rand, big.NewInt(total))
	if err != nil {
		return WheelSpin{}, err
	}
	pick := n.Int64()

	idx := len(w.Segments) - 1
	var cumulative int64
	for i, s := range w.Segments {
		if s.Weight <= 0 {
			continue
		}
		cumulative += s.Weight
		if pick < cumulative {
			idx = i
			break
		}
	}

	// each segment takes 360/len degrees; add a random offset inside it and
	// five full rotations for the animation
	segmentAngle := 360.0 / float64(len(w.Segments))
	offset := 0.0
	if m := int64(segmentAngle * 100); m > 0 {
		if o, err := rand.Int(w.rand, big.NewInt(m)); err == nil {
			offset = float64(o.Int64()) / 100.0
		}
	}

	return WheelSpin{
		Segment:   w.Segments[idx],
		SpinAngle: 5*360 + float64(idx)*segmentAngle + offset,
	}, nil
}

// ExpectedReward is the mean payout of one spin.
func (w *Wheel) ExpectedReward() float64 {
	var total, weighted float64
	for _, s := range w.Segments {
		if s.Weight > 0 {
			total += float64(s.Weight)
			weighted += float64(s.Weight) * float64(s.Reward)
		}
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
