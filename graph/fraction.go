// ABOUTME: Exact rational arithmetic for partial-ownership fractions
// ABOUTME: Fixed-width uint64 fractions always stored in lowest terms

package graph

// gcd computes the greatest common divisor by the Euclidean algorithm.
// Either operand being 1 short-circuits; numerator-1 fractions dominate in
// practice, so this path is worth having.
func gcd(a, b uint64) uint64 {
	if a == 1 || b == 1 {
		return 1
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcm computes the least common multiple, dividing the larger operand by the
// GCD first to keep the intermediate product small.
func lcm(a, b uint64) uint64 {
	if a > b {
		return b * (a / gcd(a, b))
	}
	return a * (b / gcd(a, b))
}

// Fraction is an exact rational held as a uint64 numerator and denominator,
// always reduced to lowest terms. It represents the share of a component's
// incoming edges attributable to one ancestor, so only addition,
// multiplication, and an integer-equality test are needed.
//
// Arithmetic is fixed-width: numerator and denominator products that exceed
// uint64 wrap silently. Denominators grow with the depth of unresolved
// sharing in the graph, which stays small for real heaps; see
// TestWalkerFractionDepth for the probe.
type Fraction struct {
	num uint64
	den uint64
}

// NewFraction returns num/den reduced to lowest terms. A zero denominator
// panics: it can only come from a bookkeeping bug upstream.
func NewFraction(num, den uint64) Fraction {
	if den == 0 {
		panic("graph: fraction with zero denominator")
	}
	f := Fraction{num: num, den: den}
	f.reduce()
	return f
}

func (f *Fraction) reduce() {
	if f.num == 0 {
		f.den = 1
		return
	}
	if f.num == 1 {
		return
	}
	g := gcd(f.num, f.den)
	f.num /= g
	f.den /= g
}

// Add returns f + other.
func (f Fraction) Add(other Fraction) Fraction {
	den := lcm(f.den, other.den)
	num := f.num*(den/f.den) + other.num*(den/other.den)
	return NewFraction(num, den)
}

// Mul returns f * other.
func (f Fraction) Mul(other Fraction) Fraction {
	return NewFraction(f.num*other.num, f.den*other.den)
}

// EqualsInt reports whether f is exactly the integer k. The walker only ever
// asks this with k == 1, to detect that ownership has become total.
func (f Fraction) EqualsInt(k uint64) bool {
	return f.num == f.den*k
}
