package crash

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// MinCrash is the lowest crash value the generator can return.
const MinCrash = 1.00

// Source yields uniform floats in [0, 1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// CryptoSource draws from crypto/rand (CSPRNG).
type CryptoSource struct{}

// Float64 returns 53 random bits scaled to [0, 1). On a failed read it returns 0.
func (CryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// Generator produces one hidden crash value per round.
type Generator struct {
	src   Source
	bands []Band
}

// NewGenerator returns a generator over DefaultBands. A nil src uses CryptoSource.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = CryptoSource{}
	}
	return &Generator{src: src, bands: DefaultBands}
}

// Generate draws a band, then a value inside it, rounded to two decimals.
func (g *Generator) Generate() float64 {
	band, ok := PickBand(g.bands, g.src.Float64())
	if !ok {
		return MinCrash
	}
	u := g.src.Float64()
	v := band.Lo + u*(band.Hi-band.Lo)
	return math.Max(RoundCents(v), MinCrash)
}

// RoundCents rounds v to the nearest 0.01.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
