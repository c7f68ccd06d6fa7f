package main

import (
	"log"
	"os"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/bootstrap"
	"go.uber.org/fx"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	fx.New(
		fx.Supply(cfg),
		fx.WithLogger(bootstrap.FxLogger),
		bootstrap.InfraModule,
		bootstrap.PlannerModule,
		bootstrap.HTTPModule,
	).Run()
}
