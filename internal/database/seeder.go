// server/internal/database/seeder.go
package database

import (
	"context"

	"care-referral-api-server/internal/auth"
	"care-referral-api-server/internal/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedSuperAdmin creates the bootstrap superadmin account on first startup.
func SeedSuperAdmin(ctx context.Context, db *mongo.Database, log zerolog.Logger) error {
	userCollection := db.Collection("users")
	superAdminEmail := "superadmin@example.com"

	count, err := userCollection.CountDocuments(ctx, bson.M{"email": superAdminEmail})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Msg("super admin already exists, seeding skipped")
		return nil
	}

	log.Info().Msg("super admin not found, seeding")
	hashedPassword, err := auth.HashPassword("superadminpassword")
	if err != nil {
		return err
	}

	superAdmin := models.User{
		Email:      superAdminEmail,
		Name:       "Super Admin",
		Password:   hashedPassword,
		Role:       "superadmin",
		FacilityID: "system",
		Status:     "active",
		StaffID:    "superadmin",
	}

	if _, err := userCollection.InsertOne(ctx, superAdmin); err != nil {
		return err
	}

	log.Info().Msg("super admin seeded successfully")
	return nil
}
