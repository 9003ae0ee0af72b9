package nutrient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	per100 := Profile{
		Energy:  165,
		Protein: 31,
		Fat:     3.6,
	}

	scaled := Scale(per100, 150)

	assert.InDelta(t, 247.5, scaled[Energy], 1e-9)
	assert.InDelta(t, 46.5, scaled[Protein], 1e-9)
	assert.InDelta(t, 5.4, scaled[Fat], 1e-9)

	// 原輪廓不受影響
	assert.InDelta(t, 165, per100[Energy], 1e-9)
}

func TestScaleIdentityAt100(t *testing.T) {
	per100 := Profile{Iron: 2.5, Calcium: 12}

	scaled := Scale(per100, 100)

	assert.InDelta(t, 2.5, scaled[Iron], 1e-9)
	assert.InDelta(t, 12, scaled[Calcium], 1e-9)
}

func TestScaleNonPositiveGrams(t *testing.T) {
	per100 := Profile{Energy: 165}

	assert.True(t, Scale(per100, 0).IsEmpty())
	assert.True(t, Scale(per100, -50).IsEmpty())
}

// 縮放對重量可加：scale(a+b) == scale(a) + scale(b)
func TestScaleAdditivity(t *testing.T) {
	per100 := Profile{
		Energy:    130,
		Carbs:     28.7,
		Magnesium: 12.3,
	}

	combined := Scale(per100, 175)
	split := Scale(per100, 100).Add(Scale(per100, 75))

	for key := range per100 {
		assert.InDelta(t, combined[key], split[key], 1e-9, "key=%s", key)
	}
}
