package neural

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidWeights is returned when a serialized network has an
// inconsistent shape.
var ErrInvalidWeights = errors.New("neural: invalid weights")

// LayerWeights holds one layer in serialized form.
type LayerWeights struct {
	Weights     [][]float64 `json:"weights"` // [neuron][input]
	Biases      []float64   `json:"biases"`
	Activations []string    `json:"activations"`
}

// BrainWeights is the serialized form of a network.
type BrainWeights struct {
	Inputs int            `json:"inputs"`
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights copies the network parameters into serializable form.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		Inputs: nn.Inputs,
		Layers: make([]LayerWeights, len(nn.Layers)),
	}
	for li, layer := range nn.Layers {
		lw := LayerWeights{
			Weights:     make([][]float64, len(layer.Neurons)),
			Biases:      make([]float64, len(layer.Neurons)),
			Activations: make([]string, len(layer.Neurons)),
		}
		for ni, n := range layer.Neurons {
			lw.Weights[ni] = append([]float64(nil), n.Weights...)
			lw.Biases[ni] = n.Bias
			lw.Activations[ni] = n.Activation.String()
		}
		bw.Layers[li] = lw
	}
	return bw
}

// UnmarshalWeights rebuilds a network from serialized form, validating
// that every layer's fan-in matches the previous layer's size.
func UnmarshalWeights(bw BrainWeights) (*FFNN, error) {
	if bw.Inputs <= 0 || len(bw.Layers) == 0 {
		return nil, fmt.Errorf("%w: empty network", ErrInvalidWeights)
	}

	nn := &FFNN{Inputs: bw.Inputs, Layers: make([]Layer, len(bw.Layers))}
	fanIn := bw.Inputs
	for li, lw := range bw.Layers {
		if len(lw.Weights) == 0 || len(lw.Biases) != len(lw.Weights) || len(lw.Activations) != len(lw.Weights) {
			return nil, fmt.Errorf("%w: layer %d has mismatched neuron counts", ErrInvalidWeights, li)
		}
		neurons := make([]Neuron, len(lw.Weights))
		for ni, w := range lw.Weights {
			if len(w) != fanIn {
				return nil, fmt.Errorf("%w: layer %d neuron %d has %d weights, want %d",
					ErrInvalidWeights, li, ni, len(w), fanIn)
			}
			act, err := ParseActivation(lw.Activations[ni])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidWeights, err)
			}
			neurons[ni] = Neuron{
				Weights:    append([]float64(nil), w...),
				Bias:       lw.Biases[ni],
				Activation: act,
			}
		}
		nn.Layers[li] = Layer{Neurons: neurons}
		fanIn = len(neurons)
	}
	return nn, nil
}

// MarshalJSON implements json.Marshaler.
func (nn *FFNN) MarshalJSON() ([]byte, error) {
	return json.Marshal(nn.MarshalWeights())
}

// UnmarshalJSON implements json.Unmarshaler.
func (nn *FFNN) UnmarshalJSON(data []byte) error {
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		return fmt.Errorf("decoding brain weights: %w", err)
	}
	decoded, err := UnmarshalWeights(bw)
	if err != nil {
		return err
	}
	*nn = *decoded
	return nil
}
