package database

// AuditLog is one append-only audit trail row. UserID is a weak reference:
// the user may have been deleted since.
type AuditLog struct {
	ID        uint   `gorm:"column:log_id;primaryKey;autoIncrement" json:"log_id"`
	UserID    uint   `gorm:"column:user_id;index" json:"user_id"`
	Role      string `gorm:"column:role" json:"role"`
	Action    string `gorm:"column:action;index" json:"action"`
	Timestamp string `gorm:"column:timestamp;index" json:"timestamp"`
	Details   string `gorm:"column:details" json:"details"`
}

func (AuditLog) TableName() string { return "logs" }

// Audit action tags
const (
	ActionLogin          = "Login"
	ActionAddPatient     = "AddPatient"
	ActionUpdatePatient  = "UpdatePatient"
	ActionDeletePatient  = "DeletePatient"
	ActionDecryptView    = "DecryptView"
	ActionAnonymizeAll   = "AnonymizeAll"
	ActionApplyRetention = "ApplyRetention"
	ActionExportPatients = "ExportPatients"
	ActionExportLogs     = "ExportLogs"
	ActionAddUser        = "AddUser"
	ActionUpdateUser     = "UpdateUser"
	ActionDeleteUser     = "DeleteUser"
	ActionChangePassword = "ChangePassword"
	ActionReverify       = "Reverify"
	ActionReverifyFailed = "ReverifyFailed"
)

// CountByKey is one row of a grouped count.
type CountByKey struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}
