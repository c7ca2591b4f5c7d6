package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/MolDescriptor/internal/application/calculation"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/common"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// DefaultTopK is used by Similar when the request leaves top_k unset.
const DefaultTopK = 10

// CalculationHandler serves the descriptor endpoints.
type CalculationHandler struct {
	svc    calculation.Service
	logger logging.Logger
}

// NewCalculationHandler creates a CalculationHandler.
func NewCalculationHandler(svc calculation.Service, logger logging.Logger) *CalculationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CalculationHandler{svc: svc, logger: logger.Named("http")}
}

// Calculate handles POST /api/v1/descriptors/calculate.
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req descriptor.CalculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	resp, err := h.svc.Calculate(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDescriptors handles GET /api/v1/descriptors.
func (h *CalculationHandler) ListDescriptors(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListDescriptors(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"descriptors": infos,
		"count":       len(infos),
	})
}

// GetMoleculeResults handles GET /api/v1/molecules/{moleculeID}/descriptors.
func (h *CalculationHandler) GetMoleculeResults(w http.ResponseWriter, r *http.Request) {
	row, err := h.svc.GetMoleculeResults(r.Context(), chi.URLParam(r, "moleculeID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// Similar handles POST /api/v1/descriptors/similar. top_k may also be given
// as a query parameter.
func (h *CalculationHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req descriptor.SimilarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if req.TopK <= 0 {
		topK, err := queryInt(r, "top_k", DefaultTopK)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
		req.TopK = topK
	}
	hits, err := h.svc.Similar(r.Context(), &req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

// SubmitJobRequest is the body of POST /api/v1/jobs.
type SubmitJobRequest struct {
	SMILES      []string                 `json:"smiles,omitempty"`
	Molecules   []molecule.MoleculeInput `json:"molecules,omitempty"`
	Descriptors []string                 `json:"descriptors,omitempty"`
	Export      bool                     `json:"export,omitempty"`
	Index       bool                     `json:"index,omitempty"`
}

// SubmitJobResponse acknowledges an accepted job.
type SubmitJobResponse struct {
	JobID       string           `json:"job_id"`
	SubmittedAt common.Timestamp `json:"submitted_at"`
}

// SubmitJob handles POST /api/v1/jobs.
func (h *CalculationHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	mols := append(req.Molecules, molecule.FromSMILES(req.SMILES...)...)
	job := descriptor.NewCalculationJob(mols, req.Descriptors...)
	job.Export = req.Export
	job.Index = req.Index

	if err := h.svc.SubmitJob(r.Context(), job); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/jobs/"+job.JobID)
	writeJSON(w, http.StatusAccepted, SubmitJobResponse{JobID: job.JobID, SubmittedAt: job.SubmittedAt})
}

// GetJob handles GET /api/v1/jobs/{jobID}.
func (h *CalculationHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeValidation, "job id is required"))
		return
	}
	rec, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

//Personal.AI order the ending
