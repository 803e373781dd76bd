//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/cbng-reviewer/internal/app"
)

// InitializeApp creates and wires all application dependencies. configPath
// may be empty to use the default search locations.
func InitializeApp(ctx context.Context, configPath string) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}
