// server/internal/api/routes/routes.go
package routes

import (
	"time"

	"care-referral-api-server/config"
	"care-referral-api-server/internal/api/handlers"
	"care-referral-api-server/internal/api/middleware"
	"care-referral-api-server/internal/auth"
	"care-referral-api-server/internal/ledger"
	"care-referral-api-server/internal/referral"
	"care-referral-api-server/internal/s3"
	"care-referral-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter wires the handlers and route groups.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	resourceLedger *ledger.Ledger,
	store *referral.Store,
	coordinator *referral.Coordinator,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
	signer *auth.Signer,
	log zerolog.Logger,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	timeout, err := time.ParseDuration(cfg.Server.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 5 * time.Second
	}

	referralHandler := &handlers.ReferralHandler{Coordinator: coordinator, Store: store, S3Uploader: s3Uploader, Timeout: timeout}
	ambulanceHandler := &handlers.AmbulanceHandler{DB: db, Ledger: resourceLedger, Tracker: cfg.Tracker, Timeout: timeout}
	bedHandler := &handlers.BedHandler{DB: db, Ledger: resourceLedger, Timeout: timeout}
	facilityHandler := &handlers.FacilityHandler{DB: db, Ledger: resourceLedger, Timeout: timeout}
	resourceHandler := &handlers.ResourceHandler{DB: db, Ledger: resourceLedger, Timeout: timeout}
	patientHandler := &handlers.PatientHandler{DB: db, Ledger: resourceLedger, Timeout: timeout}
	userHandler := &handlers.UserHandler{DB: db, Signer: signer, Timeout: timeout}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Signer: signer, Log: log}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		// Administration requires the superadmin role.
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate(signer))
		admin.Use(middleware.Authorize("superadmin"))
		{
			admin.POST("/users", userHandler.CreateUser)
			admin.POST("/ambulances", ambulanceHandler.CreateAmbulance)
			admin.POST("/beds", bedHandler.CreateBed)
			admin.POST("/resources", resourceHandler.CreateResource)
			admin.POST("/patients", patientHandler.CreatePatient)

			facilities := admin.Group("/facilities")
			{
				facilities.POST("/", facilityHandler.CreateFacility)
				facilities.GET("/", facilityHandler.GetAllFacilities)
				facilities.GET("/:id", facilityHandler.GetFacilityByID)
				facilities.PUT("/:id", facilityHandler.UpdateFacility)
				facilities.DELETE("/:id", facilityHandler.DeleteFacility)
			}
		}

		// Core referral workflow for facility staff.
		businessRoutes := apiV1.Group("/")
		businessRoutes.Use(middleware.Authenticate(signer))
		businessRoutes.Use(middleware.Authorize("admin", "staff", "medic", "superadmin"))
		{
			referrals := businessRoutes.Group("/referrals")
			{
				staffReferralRoutes := referrals.Group("/")
				staffReferralRoutes.Use(middleware.Authorize("admin", "staff"))
				{
					staffReferralRoutes.POST("/", referralHandler.CreateReferral)
					staffReferralRoutes.POST("/:id/accept", referralHandler.AcceptReferral)
					staffReferralRoutes.POST("/:id/divert", referralHandler.DivertReferral)
					staffReferralRoutes.POST("/slips", referralHandler.UploadSlip)
				}
				referrals.GET("/:id", referralHandler.GetReferral)
			}

			facilities := businessRoutes.Group("/facilities")
			{
				facilities.GET("/my/referrals", referralHandler.GetMyFacilityReferrals)
				facilities.GET("/:id/beds", bedHandler.GetBedsByFacility)
				facilities.GET("/:id/resources", facilityHandler.GetResourcesByFacility)
			}

			ambulances := businessRoutes.Group("/ambulances")
			{
				ambulances.GET("/", ambulanceHandler.GetAmbulances)
				ambulances.GET("/:id/position", ambulanceHandler.GetPosition)
				ambulances.GET("/:id/eta", ambulanceHandler.GetETA)

				medicRoutes := ambulances.Group("/")
				medicRoutes.Use(middleware.Authorize("admin", "medic"))
				{
					medicRoutes.POST("/:id/position", ambulanceHandler.UpdatePosition)
				}
			}

			beds := businessRoutes.Group("/beds")
			{
				beds.POST("/:id/free", bedHandler.FreeBed)
			}

			patients := businessRoutes.Group("/patients")
			{
				patients.GET("/:id", patientHandler.GetPatient)
			}
		}
	}

	return router
}
