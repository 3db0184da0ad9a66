// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/aecasagrande/clinic-app/config"
	"github.com/aecasagrande/clinic-app/endpoint"
	"github.com/aecasagrande/clinic-app/middleware"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := db.AutoMigrate(&model.Patient{}, &model.Treatment{}, &model.Setting{}, &model.AuditLog{}); err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}
	if err := endpoint.SeedDefaultSettings(db); err != nil {
		log.Fatalf("Error seeding settings: %v", err)
	}

	// Audit events persist to the same store; GeoIP enrichment is optional.
	util.SetAuditLoggerDB(db)
	if err := util.InitGeoIP(""); err != nil {
		log.Printf("GeoIP disabled: %v", err)
	}
	defer util.CloseGeoIP()

	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, rate limiting is disabled: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	router.GET("/patient", endpoint.ListPatients)
	router.POST("/patient", endpoint.CreatePatient)
	router.GET("/patient/:id", endpoint.GetPatientInfo)
	router.PATCH("/patient/:id", endpoint.UpdatePatient)
	router.DELETE("/patient/:id", endpoint.DeletePatient)
	router.GET("/patient/:id/standing", endpoint.GetPatientStanding)
	router.GET("/patient/:id/statement", endpoint.GetPatientStatement)

	router.GET("/treatment", endpoint.ListTreatments)
	router.POST("/treatment", endpoint.CreateTreatment)
	router.GET("/catalog", endpoint.ListTreatmentTypes)
	router.PATCH("/treatment/:id", endpoint.UpdateTreatment)
	router.DELETE("/treatment/:id", endpoint.DeleteTreatment)
	router.GET("/treatment/:id/receipt", endpoint.GetTreatmentReceipt)

	router.GET("/settings", endpoint.ListSettings)
	router.PUT("/settings", endpoint.UpdateSettings)

	router.GET("/export/patients", endpoint.ExportPatientsCSV)
	router.GET("/export/treatments", endpoint.ExportTreatmentsCSV)
	router.GET("/export/sales", endpoint.ExportSalesExcel)

	importLimiter := middleware.RateLimiter(middleware.RateLimitConfig{})
	router.POST("/import/patients", importLimiter, endpoint.ImportPatientsCSV)
	router.POST("/import/treatments", importLimiter, endpoint.ImportTreatmentsCSV)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
