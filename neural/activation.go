package neural

import (
	"fmt"
	"math"
)

// Activation selects a neuron's transfer function.
type Activation uint8

const (
	Sigmoid Activation = iota // (0,1), probability-like outputs
	Tanh                      // (-1,1), directional outputs
	ReLU
	Linear
)

var activationNames = [...]string{
	Sigmoid: "sigmoid",
	Tanh:    "tanh",
	ReLU:    "relu",
	Linear:  "linear",
}

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case Tanh:
		return math.Tanh(x)
	case ReLU:
		if x < 0 {
			return 0
		}
		return x
	default:
		return x
	}
}

func (a Activation) String() string {
	if int(a) < len(activationNames) {
		return activationNames[a]
	}
	return fmt.Sprintf("activation(%d)", a)
}

// ParseActivation maps a name back to an Activation.
func ParseActivation(s string) (Activation, error) {
	for i, name := range activationNames {
		if name == s {
			return Activation(i), nil
		}
	}
	return 0, fmt.Errorf("neural: unknown activation %q", s)
}
