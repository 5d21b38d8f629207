package storage

import (
	"context"
	"path"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
)

// Fetcher reads an input file by object key.
type Fetcher struct {
	store ObjectStorage
}

// NewFetcher wraps store.
func NewFetcher(store ObjectStorage) *Fetcher {
	return &Fetcher{store: store}
}

// Fetch downloads key into memory. The key's base name picks the decoder.
func (f *Fetcher) Fetch(ctx context.Context, key string) (loader.Source, error) {
	data, err := f.store.GetObject(ctx, key)
	if err != nil {
		return loader.Source{}, err
	}
	return loader.Source{Name: path.Base(key), Data: data}, nil
}
