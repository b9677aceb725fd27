package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/model"
)

// Memory is an in-process LRU cache.
type Memory struct {
	lru *lru.Cache[string, model.Prediction]
}

// NewMemory creates an LRU holding up to size predictions.
func NewMemory(size int) (*Memory, error) {
	c, err := lru.New[string, model.Prediction](size)
	if err != nil {
		return nil, errors.Wrap(err, "create lru cache")
	}
	return &Memory{lru: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) (model.Prediction, bool, error) {
	p, ok := m.lru.Get(key)
	return p, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, p model.Prediction) error {
	m.lru.Add(key, p)
	return nil
}

// Len returns the number of cached predictions.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Reset drops every cached prediction.
func (m *Memory) Reset(context.Context) error {
	m.lru.Purge()
	return nil
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
