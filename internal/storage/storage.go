package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no document exists for a key
var ErrNotFound = errors.New("document not found")

// Store is a flat key-value store of JSON documents
type Store interface {
	// Get returns the document stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key, replacing any previous document
	Put(ctx context.Context, key string, data []byte) error
	// List returns every key with the given prefix, sorted ascending
	List(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON loads the document under key and decodes it into v
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v as indented JSON and stores it under key
func PutJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}
