package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_ColumnRoundTrip(t *testing.T) {
	f := FieldFromFunc(3, 2, 4, func(r, s, x int) float64 {
		return float64(100*r + 10*s + x)
	})

	col := f.Column(2, nil)
	require.Len(t, col, 6)
	// species-major ordering: s*NR + r
	assert.Equal(t, []float64{2, 102, 202, 12, 112, 212}, col)

	g := NewField(3, 2, 4)
	for x := 0; x < 4; x++ {
		g.SetColumn(x, f.Column(x, nil))
	}
	assert.True(t, f.Equal(g))
}

func TestField_Broadcast(t *testing.T) {
	byRapid := FieldFromRapidity([]float64{1, 2}, 2, 3)
	byPos := FieldFromPosition([]float64{5, 6, 7}, 2, 2)

	for r := 0; r < 2; r++ {
		for s := 0; s < 2; s++ {
			for x := 0; x < 3; x++ {
				assert.Equal(t, float64(r+1), byRapid.At(r, s, x))
				assert.Equal(t, float64(x+5), byPos.At(r, s, x))
			}
		}
	}
}

func TestField_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		valid bool
	}{
		{"finite", 1.5, true},
		{"NaN", math.NaN(), false},
		{"+Inf", math.Inf(1), false},
		{"-Inf", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(2, 1, 2)
			f.Set(1, 0, 1, tt.value)
			if got := f.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestField_AddScaledShapeMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewField(2, 1, 2).AddScaled(1, NewField(2, 1, 3))
	})
}

func TestKernel_NaNConvention(t *testing.T) {
	k := KernelFromFunc(2, 1, func(r1, r2, _, _ int) float64 {
		if r1 == r2 {
			return 0.0 / zero()
		}
		return 1
	})
	assert.Equal(t, 0.0, k.At(0, 0, 0, 0))
	assert.Equal(t, 1.0, k.At(0, 1, 0, 0))

	k.Set(1, 0, 0, 0, math.NaN())
	k.ZeroNaN()
	assert.Equal(t, 0.0, k.At(1, 0, 0, 0))
}

func TestProfile_SumSpecies(t *testing.T) {
	p := NewProfile(2, 3)
	for x := 0; x < 3; x++ {
		p.Set(0, x, float64(x))
		p.Set(1, x, 1)
	}
	assert.Equal(t, []float64{1, 2, 3}, p.SumSpecies())
}

func zero() float64 { return 0 }
