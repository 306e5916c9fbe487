package core

// Scale is the fixed-point scale factor: 1 pixel = 1000 units.
const Scale = 1000

// Fixed is a signed fixed-point value scaled by Scale.
// It is 32 bits wide so wraparound and truncation match recorded sessions.
type Fixed int32

// ToFixed converts a pixel coordinate to fixed-point.
func ToFixed(px int32) Fixed {
	return Fixed(px * Scale)
}

// Pixels converts fixed-point to pixels, truncating toward zero.
// -999 becomes 0, not -1.
func (f Fixed) Pixels() int32 {
	return int32(f) / Scale
}

// Clamp restricts f to [-limit, limit].
func (f Fixed) Clamp(limit Fixed) Fixed {
	if f > limit {
		return limit
	}
	if f < -limit {
		return -limit
	}
	return f
}
