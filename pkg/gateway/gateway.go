package gateway

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/repository"
)

// Gateway is the single handle on the remote platform: authentication, generation and storage
type Gateway struct {
	Config    *Config
	Auth      identity.Provider
	Generator adapter.Generator
	Records   repository.Repository

	// Archive is optional
	Archive adapter.Storage
}

// New bundles the capabilities. Auth, Generator and Records are required.
func New(cfg *Config, auth identity.Provider, gen adapter.Generator, records repository.Repository, archive adapter.Storage) (*Gateway, error) {
	if cfg == nil {
		return nil, goerr.New("gateway config is required")
	}
	if auth == nil {
		return nil, goerr.New("auth capability is required")
	}
	if gen == nil {
		return nil, goerr.New("generation capability is required")
	}
	if records == nil {
		return nil, goerr.New("storage capability is required")
	}

	return &Gateway{
		Config:    cfg,
		Auth:      auth,
		Generator: gen,
		Records:   records,
		Archive:   archive,
	}, nil
}
