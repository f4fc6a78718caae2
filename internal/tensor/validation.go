package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a tensor's shape differs from the expected one.
var ErrShapeMismatch = errors.New("shape mismatch")

// CheckShape verifies that the tensor has exactly the expected shape.
// Returns a descriptive error wrapping ErrShapeMismatch otherwise.
//
// Example:
//
//	if err := tensor.CheckShape(z.Raw(), tensor.Shape{n, 2}); err != nil {
//	    return err
//	}
func CheckShape(t *RawTensor, expected Shape) error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor, expected shape %v", ErrShapeMismatch, expected)
	}
	if !t.Shape().Equal(expected) {
		return fmt.Errorf("%w: got %v, expected %v", ErrShapeMismatch, t.Shape(), expected)
	}
	return nil
}
