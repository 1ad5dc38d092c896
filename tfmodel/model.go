// Package tfmodel runs the pose model with TensorFlow and prepares its input tensors.
package tfmodel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"

	"github.com/genert/movenet"
)

// Model Loaded SavedModel with its resolved input and output nodes
type Model struct {
	session   *tf.Session
	input     tf.Output
	output    tf.Output
	inputSize int
}

// Load Loads the SavedModel bundle and resolves the nodes named in settings.
// Every failure is a setup error: the pipeline can't run without a model.
func Load(settings movenet.ModelSettings, logger logrus.FieldLogger) (*Model, error) {
	bundle, err := tf.LoadSavedModel(settings.ModelDir, settings.Tags, nil)
	if err != nil {
		return nil, movenet.NewSetupError(err, fmt.Sprintf("Can't load SavedModel from %s", settings.ModelDir))
	}

	model, err := newModel(bundle.Graph, bundle.Session, settings)
	if err != nil {
		_ = bundle.Session.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"model_dir":   settings.ModelDir,
		"input_node":  settings.InputNode,
		"output_node": settings.OutputNode,
		"input_size":  settings.InputSize,
	}).Info("Model loaded")
	return model, nil
}

func newModel(graph *tf.Graph, session *tf.Session, settings movenet.ModelSettings) (*Model, error) {
	in := graph.Operation(settings.InputNode)
	if in == nil {
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("input node %q not found in graph", settings.InputNode))
	}
	out := graph.Operation(settings.OutputNode)
	if out == nil {
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("output node %q not found in graph", settings.OutputNode))
	}

	input := in.Output(0)
	if dt := input.DataType(); dt != tf.Int32 {
		return nil, movenet.NewSetupError(nil, fmt.Sprintf("input node %q declares dtype %v, only int32 pixels are supported", settings.InputNode, dt))
	}
	// Unknown dimensions (-1) are accepted, known ones must agree with the configured size
	if shape, err := input.Shape().ToSlice(); err == nil {
		want := []int64{1, int64(settings.InputSize), int64(settings.InputSize), movenet.Channels}
		if len(shape) != len(want) {
			return nil, movenet.NewSetupError(nil, fmt.Sprintf("input node %q declares shape %v, want %v", settings.InputNode, shape, want))
		}
		for i := range want {
			if shape[i] >= 0 && shape[i] != want[i] {
				return nil, movenet.NewSetupError(nil, fmt.Sprintf("input node %q declares shape %v, want %v", settings.InputNode, shape, want))
			}
		}
	}

	return &Model{
		session:   session,
		input:     input,
		output:    out.Output(0),
		inputSize: settings.InputSize,
	}, nil
}

// InputSize returns the square spatial size of the model input
func (m *Model) InputSize() int { return m.inputSize }

// Run Feeds input to the input node and fetches the output node in one forward pass
func (m *Model) Run(ctx context.Context, input *movenet.Input) (*movenet.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, movenet.NewInferenceError(err, "frame deadline passed before inference")
	}
	if err := movenet.CheckInput(input, m.inputSize); err != nil {
		return nil, movenet.NewInferenceError(err, "input does not match model signature")
	}

	tensor, err := int32Tensor(input.Shape, input.Data)
	if err != nil {
		return nil, movenet.NewInferenceError(err, "Can't build input tensor")
	}

	fetched, err := m.session.Run(
		map[tf.Output]*tf.Tensor{m.input: tensor},
		[]tf.Output{m.output},
		nil)
	if err != nil {
		return nil, movenet.NewInferenceError(err, "forward pass failed")
	}

	shape, data, err := float32Values(fetched[0])
	if err != nil {
		return nil, movenet.NewInferenceError(err, "unexpected output tensor")
	}
	return &movenet.Output{Shape: shape, Data: data}, nil
}

// Close releases the session
func (m *Model) Close() error {
	return m.session.Close()
}
