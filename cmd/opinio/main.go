package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/opiniohq/opinio/internal/clock"
	"github.com/opiniohq/opinio/internal/config"
	"github.com/opiniohq/opinio/internal/logger"
	"github.com/opiniohq/opinio/internal/migration"
	"github.com/opiniohq/opinio/internal/observability"
	"github.com/opiniohq/opinio/internal/server"
	"github.com/opiniohq/opinio/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
