package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"minihospital/database"
	"minihospital/services"
)

// CreatePatientRequest contains the data for a new patient
type CreatePatientRequest struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Diagnosis string `json:"diagnosis"`
}

// UpdatePatientRequest contains the optional fields of a patient update.
// Omitted or blank fields keep their stored value.
type UpdatePatientRequest struct {
	Name      *string `json:"name"`
	Contact   *string `json:"contact"`
	Diagnosis *string `json:"diagnosis"`
}

func patientID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
		return 0, false
	}
	return uint(id), true
}

// AdminGetPatients returns every patient with identifying fields decrypted
func (h *Handlers) AdminGetPatients(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	records, err := h.patients.AdminList(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// CreatePatient adds a patient
func (h *Handlers) CreatePatient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	p, err := h.patients.Add(c.Request.Context(), actor, services.PatientInput{
		Name:      req.Name,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patient_id": p.ID, "date_added": p.DateAdded})
}

// UpdatePatient applies a partial update to a patient
func (h *Handlers) UpdatePatient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := patientID(c)
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	p, err := h.patients.Update(c.Request.Context(), actor, id, database.PatientUpdate{
		Name:      req.Name,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient record updated successfully", "patient_id": p.ID})
}

// ShowOriginalPatient returns one decrypted patient. Requires a DecryptView
// grant in the X-Reverify-Grant header.
func (h *Handlers) ShowOriginalPatient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := patientID(c)
	if !ok {
		return
	}

	record, err := h.patients.ShowOriginal(c.Request.Context(), actor, id, c.GetHeader(GrantHeader))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeletePatient removes a patient permanently. Requires a DeletePatient
// grant in the X-Reverify-Grant header.
func (h *Handlers) DeletePatient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := patientID(c)
	if !ok {
		return
	}

	if err := h.patients.Delete(c.Request.Context(), actor, id, c.GetHeader(GrantHeader)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted permanently"})
}

// DoctorGetPatients returns the anonymized patient list
func (h *Handlers) DoctorGetPatients(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	views, err := h.patients.DoctorList(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ReceptionGetPatient returns one anonymized patient
func (h *Handlers) ReceptionGetPatient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := patientID(c)
	if !ok {
		return
	}

	view, err := h.patients.ReceptionView(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
