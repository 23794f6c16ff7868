package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hengadev/errsx"
	"go.uber.org/zap"

	"minihospital/apperrors"
	"minihospital/database"
	"minihospital/metrics"
	"minihospital/privacy"
)

var patientsCSVHeader = []string{
	"patient_id", "name", "contact", "diagnosis", "anonymized_name", "anonymized_contact", "date_added",
}

// PatientInput is a new patient as entered at the front desk.
type PatientInput struct {
	Name      string
	Contact   string
	Diagnosis string
}

// PatientRecord is a patient with name and contact decrypted.
type PatientRecord struct {
	PatientID         uint   `json:"patient_id"`
	Name              string `json:"name"`
	Contact           string `json:"contact"`
	Diagnosis         string `json:"diagnosis"`
	AnonymizedName    string `json:"anonymized_name"`
	AnonymizedContact string `json:"anonymized_contact"`
	DateAdded         string `json:"date_added"`
}

// AnonymizedPatient is the view of a patient without identifying fields.
type AnonymizedPatient struct {
	PatientID         uint   `json:"patient_id"`
	AnonymizedName    string `json:"anonymized_name"`
	AnonymizedContact string `json:"anonymized_contact"`
	Diagnosis         string `json:"diagnosis"`
	DateAdded         string `json:"date_added"`
}

// PatientService runs patient operations for an actor.
type PatientService struct {
	store      *database.Store
	codec      *privacy.Codec
	anonymizer *privacy.Anonymizer
	audit      *AuditService
	gate       *AccessGate
	logger     *zap.Logger
}

func NewPatientService(
	store *database.Store,
	codec *privacy.Codec,
	anonymizer *privacy.Anonymizer,
	audit *AuditService,
	gate *AccessGate,
	logger *zap.Logger,
) *PatientService {
	return &PatientService{
		store:      store,
		codec:      codec,
		anonymizer: anonymizer,
		audit:      audit,
		gate:       gate,
		logger:     logger.Named("patients"),
	}
}

// Add stores a new patient. Name and contact are required; fields are
// stored as entered until the next anonymization pass.
func (s *PatientService) Add(ctx context.Context, actor Actor, in PatientInput) (*database.Patient, error) {
	if err := RequireRole(actor, database.RoleAdmin, database.RoleReceptionist); err != nil {
		return nil, err
	}

	var errs errsx.Map
	if strings.TrimSpace(in.Name) == "" {
		errs.Set("name", errors.New("name is required"))
	}
	if strings.TrimSpace(in.Contact) == "" {
		errs.Set("contact", errors.New("contact is required"))
	}
	if err := apperrors.NewValidationError(errs); err != nil {
		return nil, err
	}

	p := &database.Patient{Name: in.Name, Contact: in.Contact, Diagnosis: in.Diagnosis}
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.InsertPatient(ctx, p); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionAddPatient, fmt.Sprintf("Added patient_id %d", p.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient added", zap.Uint("patient_id", p.ID), zap.Uint("user_id", actor.UserID))
	return p, nil
}

// Update applies a partial update. Blank fields keep their stored value.
func (s *PatientService) Update(ctx context.Context, actor Actor, id uint, upd database.PatientUpdate) (*database.Patient, error) {
	if err := RequireRole(actor, database.RoleAdmin, database.RoleReceptionist); err != nil {
		return nil, err
	}

	var p *database.Patient
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		if p, err = tx.UpdatePatient(ctx, id, upd); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionUpdatePatient, fmt.Sprintf("Updated patient_id %d", id))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AdminList returns every patient with name and contact decrypted.
func (s *PatientService) AdminList(ctx context.Context, actor Actor) ([]PatientRecord, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}
	return s.decryptedPatients(ctx)
}

func (s *PatientService) decryptedPatients(ctx context.Context) ([]PatientRecord, error) {
	patients, err := s.store.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]PatientRecord, 0, len(patients))
	for _, p := range patients {
		records = append(records, s.decrypt(p))
	}
	return records, nil
}

// DoctorList returns every patient without identifying fields.
func (s *PatientService) DoctorList(ctx context.Context, actor Actor) ([]AnonymizedPatient, error) {
	if err := RequireRole(actor, database.RoleDoctor, database.RoleAdmin); err != nil {
		return nil, err
	}

	patients, err := s.store.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]AnonymizedPatient, 0, len(patients))
	for _, p := range patients {
		views = append(views, anonymizedView(p))
	}
	return views, nil
}

// ReceptionView returns one patient without identifying fields.
func (s *PatientService) ReceptionView(ctx context.Context, actor Actor, id uint) (*AnonymizedPatient, error) {
	if err := RequireRole(actor, database.RoleReceptionist, database.RoleAdmin); err != nil {
		return nil, err
	}

	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	view := anonymizedView(*p)
	return &view, nil
}

// ShowOriginal decrypts one patient for an admin holding a DecryptView grant.
// The grant is spent only once the patient is found.
func (s *PatientService) ShowOriginal(ctx context.Context, actor Actor, id uint, grantID string) (*PatientRecord, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Consume(actor, grantID, database.ActionDecryptView, PatientTarget(id)); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, actor, database.ActionDecryptView, fmt.Sprintf("Viewed original patient_id %d", id))
	metrics.DecryptViews.Inc()
	record := s.decrypt(*p)
	return &record, nil
}

// Delete permanently removes a patient for an admin holding a DeletePatient
// grant.
func (s *PatientService) Delete(ctx context.Context, actor Actor, id uint, grantID string) error {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return err
	}
	// A missing id must not spend the grant.
	if _, err := s.store.GetPatient(ctx, id); err != nil {
		return err
	}
	if err := s.gate.Consume(actor, grantID, database.ActionDeletePatient, PatientTarget(id)); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.DeletePatient(ctx, id); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionDeletePatient, fmt.Sprintf("Deleted patient_id %d", id))
		return nil
	})
}

// AnonymizeAll runs the anonymization pass and returns how many patients it
// processed.
func (s *PatientService) AnonymizeAll(ctx context.Context, actor Actor) (int, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return 0, err
	}

	var count int
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		if count, err = s.anonymizer.AnonymizeAll(ctx, tx); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionAnonymizeAll, fmt.Sprintf("Anonymized %d records", count))
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordsAnonymized.Add(float64(count))
	s.logger.Info("anonymization pass finished", zap.Int("records", count))
	return count, nil
}

// ApplyRetention deletes patients added more than days ago.
func (s *PatientService) ApplyRetention(ctx context.Context, actor Actor, days int) (int64, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return 0, err
	}
	if days < 0 {
		var errs errsx.Map
		errs.Set("days", errors.New("retention days must not be negative"))
		return 0, apperrors.NewValidationError(errs)
	}

	var deleted int64
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		if deleted, err = tx.ApplyRetention(ctx, days); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionApplyRetention,
			fmt.Sprintf("%d records removed, retention %dd", deleted, days))
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RetentionDeletions.Add(float64(deleted))
	s.logger.Info("retention applied", zap.Int("days", days), zap.Int64("deleted", deleted))
	return deleted, nil
}

// ExportPatientsCSV writes the decrypted patient table to w and returns the
// number of rows written.
func (s *PatientService) ExportPatientsCSV(ctx context.Context, actor Actor, w io.Writer) (int, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return 0, err
	}

	records, err := s.decryptedPatients(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(patientsCSVHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(uint64(r.PatientID), 10),
			r.Name,
			r.Contact,
			r.Diagnosis,
			r.AnonymizedName,
			r.AnonymizedContact,
			r.DateAdded,
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.audit.Log(ctx, actor, database.ActionExportPatients, fmt.Sprintf("Exported %d patients", len(records)))
	return len(records), nil
}

func (s *PatientService) decrypt(p database.Patient) PatientRecord {
	return PatientRecord{
		PatientID:         p.ID,
		Name:              s.codec.Decrypt(p.Name),
		Contact:           s.codec.Decrypt(p.Contact),
		Diagnosis:         p.Diagnosis,
		AnonymizedName:    p.AnonymizedName,
		AnonymizedContact: p.AnonymizedContact,
		DateAdded:         p.DateAdded,
	}
}

func anonymizedView(p database.Patient) AnonymizedPatient {
	return AnonymizedPatient{
		PatientID:         p.ID,
		AnonymizedName:    p.AnonymizedName,
		AnonymizedContact: p.AnonymizedContact,
		Diagnosis:         p.Diagnosis,
		DateAdded:         p.DateAdded,
	}
}

// PatientTarget is the grant target naming one patient.
func PatientTarget(id uint) string {
	return "patient:" + strconv.FormatUint(uint64(id), 10)
}
