package model

import "time"

// Diploma is an immutable completion credential
type Diploma struct {
	TokenID  uint64    `json:"token_id"`
	Player   Address   `json:"player"`
	TeamID   uint64    `json:"team_id"`
	Date     string    `json:"date"` // opaque issuance label
	MintedAt time.Time `json:"minted_at"`
}

// CertificateURIPrefix tags an inline base64 JSON document
const CertificateURIPrefix = "data:application/json;base64,"

// CertificateMetadata is the ERC-721 style document a certificate URI decodes to
type CertificateMetadata struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	Attributes  []CertificateAttribute `json:"attributes"`
}

// CertificateAttribute is one trait of a certificate
type CertificateAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Certificate pairs a diploma with its rendered URI
type Certificate struct {
	TokenID uint64 `json:"token_id"`
	URI     string `json:"uri"`
}

// MintDiplomaRequest represents a request to mint a diploma
type MintDiplomaRequest struct {
	Player Address `json:"player" validate:"required,eth_addr"`
	TeamID uint64  `json:"team_id" validate:"required,gt=0"`
	Date   string  `json:"date" validate:"required,max=64"`
}

// Validate validates the mint diploma request
func (r *MintDiplomaRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
