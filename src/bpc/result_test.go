package bpc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaledObjective(t *testing.T) {
	r := &Result{Objective: 1234}
	assert.InDelta(t, 123.4, r.ScaledObjective(), 1e-9)
	r.Objective = 1235
	assert.InDelta(t, 123.5, r.ScaledObjective(), 1e-9)
	r.Objective = math.Inf(1)
	assert.True(t, math.IsInf(r.ScaledObjective(), 1))
}

func TestGap(t *testing.T) {
	r := &Result{Objective: 50, RootBound: 40}
	assert.InDelta(t, 0.2, r.Gap(), 1e-9)
	r.RootBound = math.NaN()
	assert.True(t, math.IsNaN(r.Gap()))
}
