package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/migration"
	"github.com/citadia/citadia/internal/observability"
	"github.com/citadia/citadia/internal/server"
	"github.com/citadia/citadia/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
