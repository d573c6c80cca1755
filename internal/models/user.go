// server/internal/models/user.go
package models

// User matches the document in MongoDB. Every non-superadmin user is bound to
// exactly one home facility.
type User struct {
	Email      string `bson:"email" json:"email"`
	Name       string `bson:"name" json:"name"`
	Password   string `bson:"password" json:"-"`
	Role       string `bson:"role" json:"role"` // superadmin, admin, staff, medic
	FacilityID string `bson:"facilityID" json:"facilityID"`
	Status     string `bson:"status" json:"status"`
	StaffID    string `bson:"staffID" json:"staffID"`
}
