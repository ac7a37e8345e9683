package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dyluth/easel/pkg/gallery"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds a submitted record, mapping included.
const maxBodyBytes = 1 << 20

const missingFieldsMessage = "Missing required fields: name, author, or mapping"

type createResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type listResponse struct {
	Data       []*gallery.ArtRecord `json:"data"`
	NextCursor *string              `json:"next_cursor"`
}

type deleteResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// createArt handles POST /api/art.
func (s *Server) createArt(w http.ResponseWriter, r *http.Request) {
	var req gallery.CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	rec, err := s.records.CreateRecord(r.Context(), req)
	if err != nil {
		var verr *gallery.ValidationError
		if errors.As(err, &verr) && verr.Missing() {
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: missingFieldsMessage, Field: verr.Field})
			return
		}
		s.writeError(w, "create", err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, createResponse{
		Message: "Art submitted successfully!",
		ID:      rec.ID,
	})
}

// listArt handles GET /api/art?limit=&cursor=&size=&order=.
func (s *Server) listArt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := gallery.ListOptions{Cursor: q.Get("cursor")}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: "limit must be an integer", Field: "limit"})
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: "size must be a positive integer", Field: "size"})
			return
		}
		opts.Size = size
	}
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		opts.Oldest = true
	default:
		writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: "order must be 'asc' or 'desc'", Field: "order"})
		return
	}

	res, err := s.records.ListRecords(r.Context(), opts)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	resp := listResponse{Data: res.Records}
	if resp.Data == nil {
		resp.Data = []*gallery.ArtRecord{}
	}
	if res.NextCursor != "" {
		resp.NextCursor = &res.NextCursor
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// getArt handles GET /api/art/{id}.
func (s *Server) getArt(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.records.GetRecord(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, "get", err)
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Art not found")
		return
	}
	writeJSONResponse(w, http.StatusOK, rec)
}

// deleteArt handles DELETE /api/art/{id}.
func (s *Server) deleteArt(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.records.DeleteRecord(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, "delete", err)
		return
	}
	if !deleted {
		writeJSONResponse(w, http.StatusNotFound, deleteResponse{Deleted: false, Message: "Art not found"})
		return
	}
	writeJSONResponse(w, http.StatusOK, deleteResponse{Deleted: true})
}

// writeError maps core errors onto status codes: 400 for validation
// failures, 500 for everything else.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var verr *gallery.ValidationError
	if errors.As(err, &verr) {
		writeJSONResponse(w, http.StatusBadRequest, messageResponse{Message: verr.Error(), Field: verr.Field})
		return
	}

	s.logger.Error("request failed", "op", op, "error", err, "store_unavailable", gallery.IsStoreUnavailable(err))
	writeJSONResponse(w, http.StatusInternalServerError, messageResponse{Message: "Internal Server Error", Error: err.Error()})
}
