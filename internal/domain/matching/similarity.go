package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// Threshold is the minimum cosine similarity for a pairing to be persisted.
// Readers may filter more strictly; writers never filter more loosely.
const Threshold = 0.70

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hash returns the hex SHA-256 digest of text. It is used for change
// detection only.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// ToMatchScore maps a similarity in [0,1] to an integer percentage.
func ToMatchScore(sim float64) int {
	// round to 1e-4 first so values such as 0.285*100 land on the half
	scaled := math.Round(sim*1e6) / 1e4
	score := int(math.Round(scaled))
	return clampInt(score, 0, 100)
}

func MeetsThreshold(sim float64) bool {
	return sim >= Threshold
}

// ClampSimilarity pins floating noise such as 1.0000000002 back into [0,1].
func ClampSimilarity(sim float64) float64 {
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
