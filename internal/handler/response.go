package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/xeonarno/Alyra-blockquest/internal/middleware"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// maxBodyBytes caps request bodies. The largest request is a profile with a
// 2 KiB image link.
const maxBodyBytes = 64 << 10

// Links are HATEOAS links keyed by relation
type Links map[string]string

// DataResponse is the envelope of every successful single-object response
type DataResponse struct {
	Data  interface{} `json:"data"`
	Links Links       `json:"_links,omitempty"`
}

// CollectionResponse is the envelope of list responses
type CollectionResponse struct {
	Data       interface{}     `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Links      Links           `json:"_links,omitempty"`
}

// PaginationInfo carries the cursor for the next page
type PaginationInfo struct {
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// WriteJSON writes v with the given status. A nil v writes headers only.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteData writes a DataResponse
func WriteData(w http.ResponseWriter, status int, data interface{}, links Links) {
	WriteJSON(w, status, DataResponse{Data: data, Links: links})
}

// WriteCollection writes a CollectionResponse
func WriteCollection(w http.ResponseWriter, status int, data interface{}, page *PaginationInfo, links Links) {
	WriteJSON(w, status, CollectionResponse{Data: data, Pagination: page, Links: links})
}

// WriteError writes RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, p *model.ProblemDetails) {
	p.WriteJSON(w)
}

// WriteNoContent writes 204
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes exactly one JSON document into v, rejecting unknown
// fields, trailing data and bodies over maxBodyBytes
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(w, r, v); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return false
	}
	return true
}

// requireCaller writes a 401 and returns false when no caller is authenticated
func requireCaller(w http.ResponseWriter, r *http.Request) (model.Address, bool) {
	caller := middleware.GetCaller(r.Context())
	if caller.IsZero() {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return caller, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		WriteError(w, model.NewBadRequestError(name+" must be a non-negative integer"))
		return 0, false
	}
	return id, true
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (model.Address, bool) {
	addr, err := model.ParseAddress(r.PathValue(name))
	if err != nil {
		WriteError(w, model.NewBadRequestError(name+" must be a 0x-prefixed 20 byte address"))
		return "", false
	}
	return addr, true
}
