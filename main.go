package main

import (
	"log"

	"lms/config"
	paymentController "lms/controllers/payment"
	progressController "lms/controllers/progress"
	"lms/database"
	"lms/gateway"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	progressRoutes "lms/routers/progressRoutes"
	paymentService "lms/services/payment"
	progressService "lms/services/progress"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// The gateway adapter is built once from config and injected; nothing
	// reaches it through globals.
	gw, err := gateway.New(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to configure payment gateway: %v", err)
	}

	paySvc := paymentService.NewService(database.Database.Db, gw, config.AppConfig.Currency)
	progSvc := progressService.NewService(database.Database.Db)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",    // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization",   // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app, paymentController.New(paySvc))
	progressRoutes.SetupProgressRoutes(app, progressController.New(progSvc))

	utils.InitializePurchaseScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
