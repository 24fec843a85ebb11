// Package neural provides feedforward neural network brains for creatures.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MaxWeight bounds every weight and bias after mutation.
const MaxWeight = 8.0

// ErrDimensionMismatch is returned when an input vector does not match the
// network's input size.
var ErrDimensionMismatch = errors.New("neural: dimension mismatch")

// Neuron computes activation(dot(Weights, inputs) + Bias).
type Neuron struct {
	Weights    []float64
	Bias       float64
	Activation Activation
}

// Layer is a fully connected layer of neurons.
type Layer struct {
	Neurons []Neuron
}

// Layout describes the shape of a network.
type Layout struct {
	Inputs  int
	Hidden  []int        // sizes of hidden layers, tanh activated
	Outputs []Activation // one activation per output neuron
}

// FFNN is a layered feedforward neural network of arbitrary shape.
// A network is owned by exactly one creature; Clone before sharing.
type FFNN struct {
	Inputs int
	Layers []Layer
}

// NewFFNN creates a randomly initialized network with the given layout.
func NewFFNN(rng *rand.Rand, layout Layout) *FFNN {
	nn := &FFNN{Inputs: layout.Inputs}

	prev := layout.Inputs
	for _, size := range layout.Hidden {
		acts := make([]Activation, size)
		for i := range acts {
			acts[i] = Tanh
		}
		nn.Layers = append(nn.Layers, newLayer(rng, prev, acts))
		prev = size
	}
	nn.Layers = append(nn.Layers, newLayer(rng, prev, layout.Outputs))

	return nn
}

func newLayer(rng *rand.Rand, fanIn int, acts []Activation) Layer {
	// Xavier initialization
	scale := math.Sqrt(2.0 / float64(max(fanIn, 1)))
	l := Layer{Neurons: make([]Neuron, len(acts))}
	for i, act := range acts {
		w := make([]float64, fanIn)
		for j := range w {
			w[j] = rng.NormFloat64() * scale
		}
		l.Neurons[i] = Neuron{Weights: w, Activation: act}
	}
	return l
}

// NumOutputs returns the size of the output layer.
func (nn *FFNN) NumOutputs() int {
	if len(nn.Layers) == 0 {
		return 0
	}
	return len(nn.Layers[len(nn.Layers)-1].Neurons)
}

// Evaluate runs a forward pass. The input length must equal nn.Inputs;
// inputs are never truncated or padded.
func (nn *FFNN) Evaluate(inputs []float64) ([]float64, error) {
	if len(inputs) != nn.Inputs {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", ErrDimensionMismatch, nn.Inputs, len(inputs))
	}

	in := inputs
	for _, layer := range nn.Layers {
		out := make([]float64, len(layer.Neurons))
		for i := range layer.Neurons {
			n := &layer.Neurons[i]
			out[i] = n.Activation.Apply(floats.Dot(n.Weights, in) + n.Bias)
		}
		in = out
	}
	return in, nil
}

// Mutate perturbs each weight and bias with probability rate by a uniform
// value in [-strength, strength], clamping to ±MaxWeight.
// Returns avgAbsDelta: the average absolute delta of all applied mutations.
func (nn *FFNN) Mutate(rng *rand.Rand, rate, strength float64) float64 {
	var totalDelta float64
	var count int

	perturb := func(v *float64) {
		if rng.Float64() >= rate {
			return
		}
		old := *v
		*v = clampWeight(old + (rng.Float64()*2-1)*strength)
		totalDelta += math.Abs(*v - old)
		count++
	}

	for li := range nn.Layers {
		for ni := range nn.Layers[li].Neurons {
			n := &nn.Layers[li].Neurons[ni]
			for wi := range n.Weights {
				perturb(&n.Weights[wi])
			}
			perturb(&n.Bias)
		}
	}

	if count == 0 {
		return 0
	}
	return totalDelta / float64(count)
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := &FFNN{
		Inputs: nn.Inputs,
		Layers: make([]Layer, len(nn.Layers)),
	}
	for li, layer := range nn.Layers {
		neurons := make([]Neuron, len(layer.Neurons))
		for ni, n := range layer.Neurons {
			neurons[ni] = Neuron{
				Weights:    append([]float64(nil), n.Weights...),
				Bias:       n.Bias,
				Activation: n.Activation,
			}
		}
		clone.Layers[li] = Layer{Neurons: neurons}
	}
	return clone
}

// SameShape reports whether two networks have identical topology.
func (nn *FFNN) SameShape(other *FFNN) bool {
	if nn.Inputs != other.Inputs || len(nn.Layers) != len(other.Layers) {
		return false
	}
	for li := range nn.Layers {
		a, b := nn.Layers[li].Neurons, other.Layers[li].Neurons
		if len(a) != len(b) {
			return false
		}
		for ni := range a {
			if len(a[ni].Weights) != len(b[ni].Weights) || a[ni].Activation != b[ni].Activation {
				return false
			}
		}
	}
	return true
}

// Crossover builds a child by picking each weight and bias from either
// parent with equal probability. Parents with different shapes fall back
// to a clone of a.
func Crossover(a, b *FFNN, rng *rand.Rand) *FFNN {
	child := a.Clone()
	if !a.SameShape(b) {
		return child
	}
	for li := range child.Layers {
		for ni := range child.Layers[li].Neurons {
			n := &child.Layers[li].Neurons[ni]
			src := &b.Layers[li].Neurons[ni]
			for wi := range n.Weights {
				if rng.Intn(2) == 1 {
					n.Weights[wi] = src.Weights[wi]
				}
			}
			if rng.Intn(2) == 1 {
				n.Bias = src.Bias
			}
		}
	}
	return child
}

// clampWeight keeps weights within ±MaxWeight.
func clampWeight(w float64) float64 {
	if w > MaxWeight {
		return MaxWeight
	}
	if w < -MaxWeight {
		return -MaxWeight
	}
	return w
}
