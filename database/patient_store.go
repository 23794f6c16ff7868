package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"minihospital/apperrors"
)

// InsertPatient assigns p a new id. Fields are stored as given; an unset
// DateAdded is stamped with the store clock.
func (s *Store) InsertPatient(ctx context.Context, p *Patient) error {
	p.ID = 0
	if p.DateAdded == "" {
		p.DateAdded = FormatTimestamp(s.now())
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

// GetPatient returns the stored record, or apperrors.ErrNotFound.
func (s *Store) GetPatient(ctx context.Context, id uint) (*Patient, error) {
	var p Patient
	err := s.db.WithContext(ctx).Where("patient_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("patient %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient %d: %w", id, err)
	}
	return &p, nil
}

// ListPatients returns every patient ordered by id.
func (s *Store) ListPatients(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	if err := s.db.WithContext(ctx).Order("patient_id").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// ListUnanonymized returns the patients the anonymization pass has not
// processed yet.
func (s *Store) ListUnanonymized(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	err := s.db.WithContext(ctx).
		Where("anonymized_name IS NULL OR anonymized_name = ''").
		Order("patient_id").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unanonymized patients: %w", err)
	}
	return patients, nil
}

// SetAnonymized writes the result of anonymizing one patient in a single
// update.
func (s *Store) SetAnonymized(ctx context.Context, id uint, f AnonymizedFields) error {
	res := s.db.WithContext(ctx).Model(&Patient{}).Where("patient_id = ?", id).Updates(map[string]any{
		"name":               f.Name,
		"contact":            f.Contact,
		"anonymized_name":    f.AnonymizedName,
		"anonymized_contact": f.AnonymizedContact,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update patient %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("patient %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// UpdatePatient applies a partial update. Provided name and contact values
// are encrypted unless they already are ciphertext, in which case the stored
// value is kept. Diagnosis is stored as plaintext.
func (s *Store) UpdatePatient(ctx context.Context, id uint, upd PatientUpdate) (*Patient, error) {
	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err := s.sealIfPlain(p.Name, upd.Name)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	contact, err := s.sealIfPlain(p.Contact, upd.Contact)
	if err != nil {
		return nil, fmt.Errorf("contact: %w", err)
	}
	diagnosis := p.Diagnosis
	if provided(upd.Diagnosis) {
		diagnosis = *upd.Diagnosis
	}

	err = s.db.WithContext(ctx).Model(&Patient{}).Where("patient_id = ?", id).Updates(map[string]any{
		"name":      name,
		"contact":   contact,
		"diagnosis": diagnosis,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update patient %d: %w", id, err)
	}

	p.Name, p.Contact, p.Diagnosis = name, contact, diagnosis
	return p, nil
}

func (s *Store) sealIfPlain(stored string, value *string) (string, error) {
	if !provided(value) || s.cipher.IsEncrypted(*value) {
		return stored, nil
	}
	return s.cipher.Encrypt(*value)
}

func provided(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

// DeletePatient removes the record permanently.
func (s *Store) DeletePatient(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("patient_id = ?", id).Delete(&Patient{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete patient %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("patient %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// ApplyRetention deletes every patient added more than days ago and returns
// how many were deleted. There is no archive: the rows are gone.
func (s *Store) ApplyRetention(ctx context.Context, days int) (int64, error) {
	cutoff := FormatTimestamp(s.now().AddDate(0, 0, -days))
	res := s.db.WithContext(ctx).Where("date_added < ?", cutoff).Delete(&Patient{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to apply retention of %d days: %w", days, res.Error)
	}
	return res.RowsAffected, nil
}

// CountPatients returns the number of stored patients.
func (s *Store) CountPatients(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Patient{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return n, nil
}

// PatientsPerDay counts patients by the calendar day they were added.
func (s *Store) PatientsPerDay(ctx context.Context) ([]CountByKey, error) {
	var rows []CountByKey
	err := s.db.WithContext(ctx).Model(&Patient{}).
		Select("substr(date_added, 1, 10) AS key, COUNT(*) AS count").
		Group("substr(date_added, 1, 10)").
		Order("key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count patients per day: %w", err)
	}
	return rows, nil
}
