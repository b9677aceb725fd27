package model

import (
	"path/filepath"
	"sync"
)

// Registry memoizes loaded models by path. A model is loaded on first
// successful access and kept for the life of the registry; failed loads are
// not remembered, so a later call can pick up a freshly trained artifact.
type Registry struct {
	mu     sync.Mutex
	models map[string]*Model
	load   func(string) (*Model, error)
}

// NewRegistry creates an empty registry backed by Load.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model), load: Load}
}

// Get returns the model at path, loading it on first use.
func (r *Registry) Get(path string) (*Model, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[key]; ok {
		return m, nil
	}
	m, err := r.load(path)
	if err != nil {
		return nil, err
	}
	r.models[key] = m
	return m, nil
}

var defaultRegistry = NewRegistry()

// Cached returns the process-wide memoized model for path.
func Cached(path string) (*Model, error) {
	return defaultRegistry.Get(path)
}
