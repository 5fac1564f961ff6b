package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mdawahq/mdawa-transfer/internal/audit"
	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/merge"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/store"
	"github.com/mdawahq/mdawa-transfer/internal/transfer"
)

// Handler wires the protocol core to the receiver application surface. The
// core packages stay I/O free; everything stateful goes through the store.
type Handler struct {
	store    store.Store
	verifier *otp.Verifier
	auth     *auth.Service
	audit    audit.Service
	logger   *zap.Logger
}

func NewHandler(st store.Store, verifier *otp.Verifier, authService *auth.Service, auditService audit.Service, logger *zap.Logger) *Handler {
	return &Handler{
		store:    st,
		verifier: verifier,
		auth:     authService,
		audit:    auditService,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

type receiveRequest struct {
	// Data is the raw payload text, exactly as scanned from the QR code or
	// pasted from the clipboard.
	Data string `json:"data" binding:"required"`
}

// ReceiveTransfer decodes an inbound payload and registers its code as a
// pending session. Nothing is merged until the code is verified.
func (h *Handler) ReceiveTransfer(c *gin.Context) {
	var req receiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload data is required"})
		return
	}

	payload, err := transfer.Decode(req.Data)
	if err != nil {
		var parseErr *transfer.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid data, please rescan or re-enter",
				"kind":  string(parseErr.Kind),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}

	h.verifier.Register(otp.Session{
		Code:        payload.OTP,
		PatientID:   payload.Patient.ID,
		PatientName: payload.PatientName,
		Payload:     json.RawMessage(req.Data),
		CreatedAt:   payload.GeneratedAt,
		ExpiresAt:   payload.ExpiresAt,
	})

	if err := h.store.SaveSessions(c.Request.Context(), h.verifier.Snapshot()); err != nil {
		h.logger.Error("failed to persist sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store transfer"})
		return
	}

	h.logAudit(c, audit.EventTransferReceived, payload.Patient.ID, "success", map[string]interface{}{
		"records":       len(payload.Records),
		"prescriptions": len(payload.Prescriptions),
		"appointments":  len(payload.Appointments),
		"labResults":    len(payload.LabResults),
		"vitals":        len(payload.Vitals),
	})

	c.JSON(http.StatusOK, gin.H{
		"patientId":     payload.Patient.ID,
		"patientName":   payload.PatientName,
		"records":       len(payload.Records),
		"prescriptions": len(payload.Prescriptions),
		"appointments":  len(payload.Appointments),
		"labResults":    len(payload.LabResults),
		"vitals":        len(payload.Vitals),
		"expiresAt":     payload.ExpiresAt,
	})
}

type verifyRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// VerifyTransfer consumes the code and commits the pending payload into the
// local store.
func (h *Handler) VerifyTransfer(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "otp is required"})
		return
	}

	session, err := h.verifier.Verify(req.OTP)
	if err != nil {
		h.logAudit(c, audit.EventOTPRejected, "", "failure", map[string]interface{}{
			"reason": err.Error(),
		})
		switch {
		case errors.Is(err, otp.ErrInvalidFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP format. Must be 6 digits."})
		case errors.Is(err, otp.ErrUnknownCode):
			c.JSON(http.StatusNotFound, gin.H{"error": "OTP not found. Receive the transfer data first, then enter the OTP."})
		case errors.Is(err, otp.ErrExpired):
			c.JSON(http.StatusGone, gin.H{"error": "OTP has expired. Please ask the patient to generate a new one."})
		case errors.Is(err, otp.ErrAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": "OTP has already been used."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	payload, err := transfer.Decode(string(session.Payload))
	if err != nil {
		h.logger.Error("stored payload no longer decodes", zap.String("code", session.Code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored transfer data is corrupt"})
		return
	}

	ctx := c.Request.Context()
	dataset, err := h.store.LoadDataset(ctx)
	if err != nil {
		h.logger.Error("failed to load dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load local records"})
		return
	}

	merged, report := merge.Apply(dataset, *payload, time.Now())

	if err := h.store.SaveDataset(ctx, merged); err != nil {
		h.logger.Error("failed to save dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store merged records"})
		return
	}
	if err := h.store.SaveSessions(ctx, h.verifier.Snapshot()); err != nil {
		h.logger.Error("failed to persist sessions", zap.Error(err))
	}

	h.logAudit(c, audit.EventOTPVerified, payload.Patient.ID, "success", nil)
	h.logAudit(c, audit.EventMergeApplied, payload.Patient.ID, "success", map[string]interface{}{
		"added":    report.Added,
		"replaced": report.Replaced,
		"skipped":  len(report.Skipped),
	})

	c.JSON(http.StatusOK, gin.H{
		"patient": payload.Patient,
		"report":  report,
	})
}

func (h *Handler) ListPatients(c *gin.Context) {
	dataset, err := h.store.LoadDataset(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load patients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": dataset.Patients})
}

// GetPatient returns one patient with every clinical entity joined on the
// patient id.
func (h *Handler) GetPatient(c *gin.Context) {
	id := c.Param("id")

	dataset, err := h.store.LoadDataset(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load patient"})
		return
	}

	for _, p := range dataset.Patients {
		if p.ID != id {
			continue
		}
		out := gin.H{"patient": p}
		records := dataset.MedicalRecords[:0:0]
		for _, r := range dataset.MedicalRecords {
			if r.PatientID == id {
				records = append(records, r)
			}
		}
		prescriptions := dataset.Prescriptions[:0:0]
		for _, pr := range dataset.Prescriptions {
			if pr.PatientID == id {
				prescriptions = append(prescriptions, pr)
			}
		}
		appointments := dataset.Appointments[:0:0]
		for _, a := range dataset.Appointments {
			if a.PatientID == id {
				appointments = append(appointments, a)
			}
		}
		labResults := dataset.LabResults[:0:0]
		for _, l := range dataset.LabResults {
			if l.PatientID == id {
				labResults = append(labResults, l)
			}
		}
		vitals := dataset.Vitals[:0:0]
		for _, v := range dataset.Vitals {
			if v.PatientID == id {
				vitals = append(vitals, v)
			}
		}
		out["records"] = records
		out["prescriptions"] = prescriptions
		out["appointments"] = appointments
		out["labResults"] = labResults
		out["vitals"] = vitals
		c.JSON(http.StatusOK, out)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
}

func (h *Handler) logAudit(c *gin.Context, eventType audit.EventType, patientID, status string, details map[string]interface{}) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogEvent(c.Request.Context(), &audit.Event{
		EventType: eventType,
		UserID:    c.GetString("user_id"),
		PatientID: patientID,
		RequestID: c.GetString("request_id"),
		Status:    status,
		Details:   details,
	})
}
