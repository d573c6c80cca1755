// server/internal/database/mongo.go
package database

import (
	"context"
	"fmt"
	"time"

	"care-referral-api-server/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client, pings the deployment and returns the configured
// database handle.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the unique indexes the workflow relies on. The unique
// index on referenceNumber is what turns a random collision into a retryable
// duplicate-key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := map[string]mongo.IndexModel{
		"referrals":          {Keys: bson.D{{Key: "referenceNumber", Value: 1}}, Options: unique},
		"ambulances":         {Keys: bson.D{{Key: "ambulanceID", Value: 1}}, Options: unique},
		"beds":               {Keys: bson.D{{Key: "bedID", Value: 1}}, Options: unique},
		"facilities":         {Keys: bson.D{{Key: "facilityID", Value: 1}}, Options: unique},
		"facility_resources": {Keys: bson.D{{Key: "resourceID", Value: 1}}, Options: unique},
		"patients":           {Keys: bson.D{{Key: "patientID", Value: 1}}, Options: unique},
		"users":              {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	}

	for coll, model := range specs {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll, err)
		}
	}

	referralID := mongo.IndexModel{Keys: bson.D{{Key: "referralID", Value: 1}}, Options: unique}
	if _, err := db.Collection("referrals").Indexes().CreateOne(ctx, referralID); err != nil {
		return fmt.Errorf("failed to create index on referrals: %w", err)
	}

	// Range-scan indexes for the dashboard queries (beds by facility+ward+status,
	// referrals by either facility).
	scans := []struct {
		coll string
		keys bson.D
	}{
		{"beds", bson.D{{Key: "facilityID", Value: 1}, {Key: "wardType", Value: 1}, {Key: "status", Value: 1}}},
		{"referrals", bson.D{{Key: "destinationFacilityID", Value: 1}, {Key: "status", Value: 1}}},
		{"referrals", bson.D{{Key: "originFacilityID", Value: 1}, {Key: "status", Value: 1}}},
		{"referrals", bson.D{{Key: "ambulanceID", Value: 1}, {Key: "status", Value: 1}}},
		{"facility_resources", bson.D{{Key: "facilityID", Value: 1}, {Key: "resourceType", Value: 1}}},
	}
	for _, s := range scans {
		if _, err := db.Collection(s.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: s.keys}); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", s.coll, err)
		}
	}
	return nil
}
