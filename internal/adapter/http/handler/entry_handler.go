package handler

import (
	"net/http"

	"github.com/iho/cfadjust/internal/adapter/http/dto"
	"github.com/iho/cfadjust/internal/usecase"
)

// EntryHandler handles entry extraction requests.
type EntryHandler struct{}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler() *EntryHandler {
	return &EntryHandler{}
}

// Extract rebuilds the entry rendered in the posted row.
func (h *EntryHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req dto.ExtractEntryRequest
	if !decode(w, r, &req) {
		return
	}

	entry, err := usecase.ExtractEntry(req.ToRow())
	if err != nil {
		writeDomainError(w, "failed to extract entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
