package command

import (
	"context"
	"fmt"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/config"
	"github.com/n1rna/cms-admin/internal/resource"
	"github.com/n1rna/cms-admin/internal/screen"
)

type (
	configKey   struct{}
	registryKey struct{}
	clientKey   struct{}
)

// WithConfig returns a new context with the loaded configuration
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the configuration from the context
func GetConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return nil
}

// WithRegistry returns a new context with the content type registry
func WithRegistry(ctx context.Context, reg *resource.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// GetRegistry retrieves the content type registry from the context
func GetRegistry(ctx context.Context) *resource.Registry {
	if reg, ok := ctx.Value(registryKey{}).(*resource.Registry); ok {
		return reg
	}
	return nil
}

// WithClient returns a new context with the API client
func WithClient(ctx context.Context, client *api.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient retrieves the API client from the context
func GetClient(ctx context.Context) *api.Client {
	if client, ok := ctx.Value(clientKey{}).(*api.Client); ok {
		return client
	}
	return nil
}

// RequireResource resolves a content type by key or path and builds the
// controller for its screen
func RequireResource(ctx context.Context, name string) (*screen.Controller, error) {
	reg := GetRegistry(ctx)
	if reg == nil {
		return nil, fmt.Errorf("resource registry not initialized")
	}
	client := GetClient(ctx)
	if client == nil {
		return nil, fmt.Errorf("API client not initialized")
	}

	def, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	return screen.New(def, client.Collection(def.Path)), nil
}
