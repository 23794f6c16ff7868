package privacy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"minihospital/database"
)

const (
	anonNamePrefix    = "ANON_"
	anonNameOffset    = 1000
	contactMask       = "XXX-XXX-"
	contactMaskedFull = "XXX-XXX-XXXX"
)

// AnonymizationStore is the slice of the record store the anonymizer needs.
// *database.Store satisfies it, inside or outside a transaction.
type AnonymizationStore interface {
	ListUnanonymized(ctx context.Context) ([]database.Patient, error)
	SetAnonymized(ctx context.Context, id uint, fields database.AnonymizedFields) error
}

// Anonymizer derives the masked display values for patients that have never
// been processed and makes sure their identifying fields are encrypted.
type Anonymizer struct {
	codec  *Codec
	logger *zap.Logger
}

func NewAnonymizer(codec *Codec, logger *zap.Logger) *Anonymizer {
	return &Anonymizer{codec: codec, logger: logger.Named("anonymizer")}
}

// AnonymizeAll processes every patient whose anonymized name is still empty
// and returns how many were processed. Records processed by an earlier run
// are never selected again, so a second call returns 0.
func (a *Anonymizer) AnonymizeAll(ctx context.Context, store AnonymizationStore) (int, error) {
	patients, err := store.ListUnanonymized(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unanonymized patients: %w", err)
	}

	for _, p := range patients {
		fields, err := a.derive(p)
		if err != nil {
			return 0, fmt.Errorf("patient %d: %w", p.ID, err)
		}
		if err := store.SetAnonymized(ctx, p.ID, fields); err != nil {
			return 0, fmt.Errorf("failed to store anonymized patient %d: %w", p.ID, err)
		}
		a.logger.Debug("patient anonymized", zap.Uint("patient_id", p.ID))
	}

	return len(patients), nil
}

func (a *Anonymizer) derive(p database.Patient) (database.AnonymizedFields, error) {
	name, err := a.encryptOnce(p.Name)
	if err != nil {
		return database.AnonymizedFields{}, err
	}
	contact, err := a.encryptOnce(p.Contact)
	if err != nil {
		return database.AnonymizedFields{}, err
	}

	return database.AnonymizedFields{
		Name:              name,
		Contact:           contact,
		AnonymizedName:    AnonymizedName(p.ID),
		AnonymizedContact: MaskContact(a.codec.Decrypt(p.Contact)),
	}, nil
}

func (a *Anonymizer) encryptOnce(value string) (string, error) {
	if value == "" || a.codec.IsEncrypted(value) {
		return value, nil
	}
	return a.codec.Encrypt(value)
}

// AnonymizedName is the display label shown in place of a patient's name.
func AnonymizedName(id uint) string {
	return fmt.Sprintf("%s%d", anonNamePrefix, id+anonNameOffset)
}

// MaskContact keeps the last four characters of contact behind a fixed mask.
func MaskContact(contact string) string {
	if contact == "" {
		return contactMaskedFull
	}
	runes := []rune(contact)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return contactMask + string(runes)
}
