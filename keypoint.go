package movenet

import "fmt"

// Keypoint Normalized position of a detected landmark within the model input
type Keypoint struct {
	Y float32 `json:"y"`
	X float32 `json:"x"`
	// Confidence of the detection, 0 if the model does not emit one
	Score float32 `json:"score"`
}

func (k Keypoint) String() string {
	return fmt.Sprintf("Keypoint{y: %.5f, x: %.5f, score: %.5f}", k.Y, k.X, k.Score)
}

// ExtractKeypoint Reads the first keypoint of the first detected entity from a
// [batch, entity, keypoint, (y, x[, score])] output.
//
// Any output not honoring that layout is reported as an inference error.
func ExtractKeypoint(out *Output) (Keypoint, error) {
	if out == nil {
		return Keypoint{}, NewInferenceError(nil, "no output tensor")
	}
	if len(out.Shape) != 4 {
		return Keypoint{}, NewInferenceError(nil, fmt.Sprintf("output rank %d, want 4 (shape %v)", len(out.Shape), out.Shape))
	}
	for i, min := range [4]int64{1, 1, 1, 2} {
		if out.Shape[i] < min {
			return Keypoint{}, NewInferenceError(nil, fmt.Sprintf("output dimension %d is %d, want at least %d (shape %v)", i, out.Shape[i], min, out.Shape))
		}
	}
	if n := ShapeSize(out.Shape); int64(len(out.Data)) != n {
		return Keypoint{}, NewInferenceError(nil, fmt.Sprintf("output holds %d values, shape %v needs %d", len(out.Data), out.Shape, n))
	}

	// [0, 0, 0, :] starts at offset 0 in row-major order
	kp := Keypoint{Y: out.Data[0], X: out.Data[1]}
	if out.Shape[3] >= 3 {
		kp.Score = out.Data[2]
	}
	return kp, nil
}
