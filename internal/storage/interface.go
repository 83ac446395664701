package storage

import (
	"errors"
	"fmt"

	"github.com/palma21/hotel-rating-fetcher/internal/config"
)

// ErrNotFound is returned by Retrieve when nothing is stored under a name
var ErrNotFound = errors.New("blob not found")

// StorageInterface defines the contract for storage operations
type StorageInterface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
}

// New builds the backend selected by STORAGE_BACKEND
func New(cfg *config.Config) (StorageInterface, error) {
	switch cfg.StorageBackend {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "file":
		return NewFileStorage(cfg.StorageDir)
	case "azure":
		return NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
