package main

import (
	"github.com/capitalpay/capitalpay-api/config"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/routes"
	"github.com/capitalpay/capitalpay-api/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.BlogPost{}, &models.ContactMessage{}, &models.ContactNote{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (%s)", cfg.AppPort, cfg.Environment)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
