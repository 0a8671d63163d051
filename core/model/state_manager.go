package model

import (
	"sync"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// StateManager tracks whether a model has been fitted and the shape it was
// fitted on. Models hold one by composition.
type StateManager struct {
	mu     sync.RWMutex
	fitted bool

	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted on nSamples rows of nFeatures columns.
func (s *StateManager) SetFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// Dimensions returns the number of features and samples seen during fitting.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks a prediction input against the fitted column count.
// It also fails with NotFittedError when nothing was fitted yet.
func (s *StateManager) RequireFeatures(modelName, method string, X interface{ Dims() (int, int) }) error {
	if err := s.RequireFitted(modelName, method); err != nil {
		return err
	}
	_, c := X.Dims()
	nFeatures, _ := s.Dimensions()
	if c != nFeatures {
		return errors.NewDimensionError(modelName+"."+method, nFeatures, c, 1)
	}
	return nil
}
