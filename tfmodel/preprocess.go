package tfmodel

import (
	"fmt"

	"github.com/genert/movenet"
)

// NewPreprocessor Creates the preprocessor selected by settings
func NewPreprocessor(settings movenet.ModelSettings) (movenet.Preprocessor, error) {
	switch settings.Preprocessor {
	case movenet.PreprocessorGraph, "":
		p, err := NewGraphPreprocessor(settings.InputSize)
		if err != nil {
			return nil, err
		}
		return p, nil
	case movenet.PreprocessorOpenCV:
		p, err := NewMatPreprocessor(settings.InputSize)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("unknown preprocessor %q", settings.Preprocessor))
	}
}
