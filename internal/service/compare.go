package service

import (
	"context"
	"strings"
	"sync"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

// CompareState is the lifecycle of a CompareCoordinator
type CompareState string

const (
	CompareIdle       CompareState = "idle"
	ComparePredicting CompareState = "predicting"
	CompareReady      CompareState = "ready"
	CompareErrored    CompareState = "errored"
)

const compareFailedMessage = "Unable to compare right now."

// CompareCoordinator runs address comparisons through the Predictor. It is
// independent of the RequestCoordinator.
type CompareCoordinator struct {
	predictor Predictor
	logger    *zap.Logger

	mu         sync.Mutex
	state      CompareState
	generation uint64
	results    []model.PredictedProperty
	message    string
}

func NewCompareCoordinator(predictor Predictor, logger *zap.Logger) *CompareCoordinator {
	return &CompareCoordinator{
		predictor: predictor,
		logger:    logger,
		state:     CompareIdle,
	}
}

// Compare predicts prices for two addresses. Both must be non-blank. On
// failure the previous results are kept and the state becomes errored.
func (c *CompareCoordinator) Compare(ctx context.Context, addressA, addressB string) ([]model.PredictedProperty, error) {
	addressA = strings.TrimSpace(addressA)
	addressB = strings.TrimSpace(addressB)
	if addressA == "" || addressB == "" {
		return nil, newError(ErrorEmptySubmission, "blank_address", nil)
	}

	c.mu.Lock()
	if c.state == ComparePredicting {
		c.mu.Unlock()
		return nil, newError(ErrorBusy, "prediction_in_flight", nil)
	}
	c.generation++
	gen := c.generation
	c.state = ComparePredicting
	c.message = ""
	c.mu.Unlock()

	c.logger.Info("Comparing addresses", zap.String("address_a", addressA), zap.String("address_b", addressB))

	resp, err := c.predictor.Predict(ctx, addressA, addressB)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return nil, newError(ErrorSuperseded, "stale_generation", nil)
	}
	if err != nil {
		c.logger.Warn("Prediction failed", zap.Error(err))
		c.state = CompareErrored
		c.message = compareFailedMessage
		return nil, collaboratorError("predict_error", err)
	}

	c.state = CompareReady
	c.results = []model.PredictedProperty{}
	if resp != nil && resp.Properties != nil {
		c.results = append(c.results, resp.Properties...)
	}
	return append([]model.PredictedProperty{}, c.results...), nil
}

// Abandon discards an in-flight prediction.
func (c *CompareCoordinator) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.state == ComparePredicting {
		c.state = CompareIdle
	}
}

func (c *CompareCoordinator) State() CompareState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CompareCoordinator) Results() []model.PredictedProperty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.PredictedProperty{}, c.results...)
}

// Message is the user-facing error of the last failed comparison, if any.
func (c *CompareCoordinator) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}
