package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/xeonarno/Alyra-blockquest/internal/middleware"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// CertificationHandler handles the diploma registry
type CertificationHandler struct {
	certs *service.CertificationService
}

// NewCertificationHandler creates a new certification handler
func NewCertificationHandler(certs *service.CertificationService) *CertificationHandler {
	return &CertificationHandler{certs: certs}
}

// minter is the identity a mint request acts as. A token carrying the admin
// role acts as the registry owner when one is configured.
func (h *CertificationHandler) minter(r *http.Request, caller model.Address) model.Address {
	if claims := middleware.GetClaims(r.Context()); claims != nil && claims.IsAdmin() && !h.certs.Owner().IsZero() {
		return h.certs.Owner()
	}
	return caller
}

// Mint handles POST /v1/diplomas
func (h *CertificationHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.MintDiplomaRequest
	if !decodeBody(w, r, &req) {
		return
	}

	diploma, err := h.certs.MintDiploma(r.Context(), h.minter(r, caller), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, diploma, diplomaLinks(diploma.TokenID))
}

func diplomaLinks(tokenID uint64) Links {
	return Links{
		"self": fmt.Sprintf("/v1/diplomas/%d", tokenID),
		"uri":  fmt.Sprintf("/v1/diplomas/%d/uri", tokenID),
	}
}

// Get handles GET /v1/diplomas/{tokenId}
func (h *CertificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathID(w, r, "tokenId")
	if !ok {
		return
	}

	diploma, err := h.certs.GetDiploma(r.Context(), tokenID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, diploma, diplomaLinks(tokenID))
}

// TokenURI handles GET /v1/diplomas/{tokenId}/uri
func (h *CertificationHandler) TokenURI(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathID(w, r, "tokenId")
	if !ok {
		return
	}

	uri, err := h.certs.TokenURI(r.Context(), tokenID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, model.Certificate{TokenID: tokenID, URI: uri}, nil)
}

// PlayerDiplomas handles GET /v1/players/{address}/diplomas
func (h *CertificationHandler) PlayerDiplomas(w http.ResponseWriter, r *http.Request) {
	player, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	ids, err := h.certs.GetAllDiplomasOfPlayer(r.Context(), player)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, ids, nil)
}

// PlayerCertificates handles GET /v1/players/{address}/certificates
func (h *CertificationHandler) PlayerCertificates(w http.ResponseWriter, r *http.Request) {
	player, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	certs, err := h.certs.GetAllCertificatesOfPlayer(r.Context(), player)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, certs, nil)
}

// PlayerCertificate handles GET /v1/players/{address}/certificates/{index}
func (h *CertificationHandler) PlayerCertificate(w http.ResponseWriter, r *http.Request) {
	player, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		WriteError(w, model.NewBadRequestError("index must be an integer"))
		return
	}

	uri, err := h.certs.GetCertificateURI(r.Context(), player, index)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"player": player,
		"index":  index,
		"uri":    uri,
	}, nil)
}
