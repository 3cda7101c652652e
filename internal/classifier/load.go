package classifier

import "fmt"

// Provider kinds accepted by Load.
const (
	KindONNX   = "onnx"
	KindLinear = "linear"
	KindNone   = "none"
)

// Load opens the configured provider. KindNone and an empty kind return a
// nil Classifier and no error.
func Load(kind, path, onnxLibrary string) (Classifier, error) {
	switch kind {
	case "", KindNone:
		return nil, nil
	case KindONNX:
		m, err := LoadONNX(path, onnxLibrary)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindLinear:
		m, err := LoadLinear(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", kind)
	}
}
