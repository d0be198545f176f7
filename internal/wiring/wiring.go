// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/bob/internal/adapters/config"
	_ "go.trai.ch/bob/internal/adapters/env"
	_ "go.trai.ch/bob/internal/adapters/fs"
	_ "go.trai.ch/bob/internal/adapters/implhash"
	_ "go.trai.ch/bob/internal/adapters/logger"
	_ "go.trai.ch/bob/internal/adapters/shell"
	_ "go.trai.ch/bob/internal/adapters/store"
	_ "go.trai.ch/bob/internal/adapters/telemetry"
	_ "go.trai.ch/bob/internal/adapters/valuesnap"
	// Register app and engine nodes.
	_ "go.trai.ch/bob/internal/app"
	_ "go.trai.ch/bob/internal/engine/history"
	_ "go.trai.ch/bob/internal/engine/scheduler"
)
