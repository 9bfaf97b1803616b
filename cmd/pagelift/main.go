package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/pagelift/pagelift/internal/clock"
	"github.com/pagelift/pagelift/internal/migration"
	"github.com/pagelift/pagelift/internal/server"
	"github.com/pagelift/pagelift/pkg/db"
	"github.com/pagelift/pagelift/pkg/log"
)

func main() {
	app := fx.New(
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
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
