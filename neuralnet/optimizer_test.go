package neuralnet

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSGDApplyNilParams(t *testing.T) {
	sgd := &SGD{}
	assert.ErrorIs(t, sgd.Apply(nil, nil), ErrInvalidArgument)
}

func TestSGDApplyMomentumRule(t *testing.T) {
	const epsilon = 1e-12

	layer, err := NewLayer(2, 1, Linear, DefaultWeightInitRange, rand.New(rand.NewPCG(1, 0)))
	require.NoError(t, err)
	require.NoError(t, layer.SetWeights([][]float64{{1.0}, {-1.0}}))
	require.NoError(t, layer.SetBias([]float64{0.5}))

	// Seed velocities and gradients directly.
	layer.weightVel.Set(0, 0, 0.1)
	layer.weightVel.Set(1, 0, -0.1)
	layer.biasVel.SetVec(0, 0.05)
	layer.weightGrad.Set(0, 0, 0.2)
	layer.weightGrad.Set(1, 0, 0.4)
	layer.biasGrad.SetVec(0, 0.1)

	params := Params{LearningRate: 0.1, Momentum: 0.9}
	require.NoError(t, (&SGD{}).Apply([]*Layer{layer}, &params))

	// velocity = momentum*velocity - lr*gradient; value += velocity
	wantVel0 := 0.9*0.1 - 0.1*0.2
	wantVel1 := 0.9*-0.1 - 0.1*0.4
	wantBiasVel := 0.9*0.05 - 0.1*0.1

	assert.InDelta(t, wantVel0, layer.weightVel.At(0, 0), epsilon)
	assert.InDelta(t, wantVel1, layer.weightVel.At(1, 0), epsilon)
	assert.InDelta(t, wantBiasVel, layer.biasVel.AtVec(0), epsilon)
	assert.InDeltaSlice(t, []float64{1.0 + wantVel0}, layer.Weights()[0], epsilon)
	assert.InDeltaSlice(t, []float64{-1.0 + wantVel1}, layer.Weights()[1], epsilon)
	assert.InDelta(t, 0.5+wantBiasVel, layer.Bias()[0], epsilon)

	// Gradients are consumed by the update, velocities are kept.
	assert.Equal(t, 0.0, layer.weightGrad.At(0, 0))
	assert.Equal(t, 0.0, layer.weightGrad.At(1, 0))
	assert.Equal(t, 0.0, layer.biasGrad.AtVec(0))
}

func TestSGDMomentumCarriesOver(t *testing.T) {
	layer, err := NewLayer(1, 1, Linear, DefaultWeightInitRange, rand.New(rand.NewPCG(2, 0)))
	require.NoError(t, err)
	require.NoError(t, layer.SetWeights([][]float64{{0}}))

	params := Params{LearningRate: 1, Momentum: 0.5}
	layer.weightGrad.Set(0, 0, 1)
	require.NoError(t, (&SGD{}).Apply([]*Layer{layer}, &params))
	assert.InDelta(t, -1.0, layer.Weights()[0][0], 1e-12)

	// No new gradient: the weight keeps moving on momentum alone.
	require.NoError(t, (&SGD{}).Apply([]*Layer{layer}, &params))
	assert.InDelta(t, -1.5, layer.Weights()[0][0], 1e-12)
}

func TestSGDEndEpochDecay(t *testing.T) {
	sgd := &SGD{}

	p := Params{LearningRate: 0.4, Decay: 0.5}
	sgd.EndEpoch(&p)
	assert.InDelta(t, 0.2, p.LearningRate, 1e-12)

	p = Params{LearningRate: 0.4}
	sgd.EndEpoch(&p)
	assert.Equal(t, 0.4, p.LearningRate)

	p = Params{LearningRate: 0.4, Decay: 1.5}
	sgd.EndEpoch(&p)
	assert.Equal(t, 0.4, p.LearningRate)
}
