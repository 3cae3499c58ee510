package api

import (
	"net/http"
	"strconv"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/service/policy"
)

// maxImportSize caps uploaded CSV files at 5 MiB.
const maxImportSize = 5 << 20

// ImportHandler handles CSV bulk import API requests.
type ImportHandler struct {
	importer *service.Importer
}

// NewImportHandler creates a new ImportHandler with the given dependencies.
func NewImportHandler(importer *service.Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Upload handles POST /imports requests. The CSV is sent as a multipart
// form file under the "file" field.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionImportTasks)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	// Duplicate skipping is on unless the form explicitly turns it off.
	skipDuplicates := true
	if v := r.FormValue("skip_duplicates"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid skip_duplicates value")
			return
		}
		skipDuplicates = parsed
	}

	batch, err := h.importer.Import(r.Context(), user.ID, header.Filename, file, skipDuplicates)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, batchToResponse(batch))
}

// GetBatch handles GET /imports/{id} requests.
func (h *ImportHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAction(w, r, policy.ActionImportTasks); !ok {
		return
	}

	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	batch, err := h.importer.GetBatch(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, batchToResponse(batch))
}

// ListBatches handles GET /imports requests, returning the authenticated
// user's batches.
func (h *ImportHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	user, ok := requireAction(w, r, policy.ActionImportTasks)
	if !ok {
		return
	}

	batches, err := h.importer.ListBatches(r.Context(), user.ID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	out := make([]ImportBatchResponse, 0, len(batches))
	for _, batch := range batches {
		out = append(out, batchToResponse(batch))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}
