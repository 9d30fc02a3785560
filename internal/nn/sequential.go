package nn

import (
	"fmt"

	"github.com/born-ml/anp/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. The first failing
// module stops the chain; its error is returned with the module index.
//
// Example:
//
//	mlp := nn.NewSequential[B](
//	    nn.NewLinear(3, 32, rng, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(32, 8, rng, backend),
//	)
//	output, err := mlp.Forward(input)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	output := input
	for i, module := range s.modules {
		var err error
		output, err = module.Forward(output)
		if err != nil {
			return nil, fmt.Errorf("module %d (%T): %w", i, module, err)
		}
	}
	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index, or false when index is out of range.
func (s *Sequential[B]) Module(index int) (Module[B], bool) {
	if index < 0 || index >= len(s.modules) {
		return nil, false
	}
	return s.modules[index], true
}
