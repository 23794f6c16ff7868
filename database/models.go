package database

import (
	"time"
)

// TimestampLayout is the text form of every stored timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// User represents a login account.
type User struct {
	ID       uint   `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Username string `gorm:"column:username;unique;not null" json:"username"`
	Password string `gorm:"column:password;not null" json:"-"`
	// PasswordScheme tags how Password is stored. Empty means the row
	// predates the column and the scheme is inferred from its shape.
	PasswordScheme string `gorm:"column:password_scheme;not null;default:''" json:"-"`
	Role           string `gorm:"column:role;not null" json:"role"`
}

func (User) TableName() string { return "users" }

// Patient is a stored patient record. Name and Contact hold ciphertext once
// the record has been anonymized or updated, plaintext before that.
type Patient struct {
	ID                uint   `gorm:"column:patient_id;primaryKey;autoIncrement" json:"patient_id"`
	Name              string `gorm:"column:name" json:"name"`
	Contact           string `gorm:"column:contact" json:"contact"`
	Diagnosis         string `gorm:"column:diagnosis" json:"diagnosis"`
	AnonymizedName    string `gorm:"column:anonymized_name" json:"anonymized_name"`
	AnonymizedContact string `gorm:"column:anonymized_contact" json:"anonymized_contact"`
	DateAdded         string `gorm:"column:date_added;index" json:"date_added"`
}

func (Patient) TableName() string { return "patients" }

// IsAnonymized reports whether the anonymization pass has processed p.
func (p Patient) IsAnonymized() bool {
	return p.AnonymizedName != ""
}

// PatientUpdate carries the optional fields of a partial update. Nil or
// blank fields keep their stored value.
type PatientUpdate struct {
	Name      *string
	Contact   *string
	Diagnosis *string
}

// AnonymizedFields is what one anonymization step writes for a patient.
type AnonymizedFields struct {
	Name              string
	Contact           string
	AnonymizedName    string
	AnonymizedContact string
}

// User roles
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
)

// Roles lists every valid role.
var Roles = []string{RoleAdmin, RoleDoctor, RoleReceptionist}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
