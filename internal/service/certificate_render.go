package service

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

//go:embed schema/certificate.schema.json
var certificateSchemaJSON []byte

const (
	certificateSchemaURL = "https://api.blockquest.dev/schemas/certificate.schema.json"
	svgURIPrefix         = "data:image/svg+xml;base64,"
)

// CertificateRenderer turns diplomas into self-contained metadata documents
type CertificateRenderer struct {
	schema *jsonschema.Schema
}

// NewCertificateRenderer compiles the embedded metadata schema
func NewCertificateRenderer() (*CertificateRenderer, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(certificateSchemaURL, bytes.NewReader(certificateSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add certificate schema: %w", err)
	}
	schema, err := c.Compile(certificateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile certificate schema: %w", err)
	}
	return &CertificateRenderer{schema: schema}, nil
}

// Metadata builds the document for a diploma
func (r *CertificateRenderer) Metadata(d *model.Diploma) model.CertificateMetadata {
	return model.CertificateMetadata{
		Name:        fmt.Sprintf("BlockQuest Diploma #%d", d.TokenID),
		Description: fmt.Sprintf("Awarded to %s for completing a quest with team %d on %s.", d.Player, d.TeamID, d.Date),
		Image:       svgURIPrefix + base64.StdEncoding.EncodeToString(diplomaCard(d)),
		Attributes: []model.CertificateAttribute{
			{TraitType: "Player", Value: d.Player.String()},
			{TraitType: "Team", Value: d.TeamID},
			{TraitType: "Date", Value: d.Date},
		},
	}
}

// URI renders the diploma as data:application/json;base64,<document>. The
// document is checked against the metadata schema before it is returned.
func (r *CertificateRenderer) URI(d *model.Diploma) (string, error) {
	doc, err := json.Marshal(r.Metadata(d))
	if err != nil {
		return "", fmt.Errorf("encode certificate %d: %w", d.TokenID, err)
	}

	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return "", fmt.Errorf("decode certificate %d: %w", d.TokenID, err)
	}
	if err := r.schema.Validate(v); err != nil {
		return "", fmt.Errorf("%w: token %d: %v", ErrInvalidCertificate, d.TokenID, err)
	}

	return model.CertificateURIPrefix + base64.StdEncoding.EncodeToString(doc), nil
}

// DecodeCertificateURI parses a data URI produced by URI
func DecodeCertificateURI(uri string) (*model.CertificateMetadata, error) {
	if !strings.HasPrefix(uri, model.CertificateURIPrefix) {
		return nil, errors.New("not a certificate uri")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, model.CertificateURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode certificate uri: %w", err)
	}
	var meta model.CertificateMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode certificate document: %w", err)
	}
	return &meta, nil
}

func diplomaCard(d *model.Diploma) []byte {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="600" height="400" viewBox="0 0 600 400">`)
	b.WriteString(`<rect width="600" height="400" fill="#1d1a2f"/>`)
	b.WriteString(`<rect x="16" y="16" width="568" height="368" fill="none" stroke="#d4af37" stroke-width="4"/>`)
	b.WriteString(`<text x="300" y="110" font-family="serif" font-size="40" fill="#d4af37" text-anchor="middle">BlockQuest Diploma</text>`)
	fmt.Fprintf(&b, `<text x="300" y="190" font-family="monospace" font-size="16" fill="#ffffff" text-anchor="middle">%s</text>`, html.EscapeString(d.Player.String()))
	fmt.Fprintf(&b, `<text x="300" y="250" font-family="serif" font-size="22" fill="#ffffff" text-anchor="middle">Team #%d</text>`, d.TeamID)
	fmt.Fprintf(&b, `<text x="300" y="300" font-family="serif" font-size="20" fill="#cccccc" text-anchor="middle">%s</text>`, html.EscapeString(d.Date))
	fmt.Fprintf(&b, `<text x="300" y="360" font-family="monospace" font-size="14" fill="#888888" text-anchor="middle">#%d</text>`, d.TokenID)
	b.WriteString(`</svg>`)
	return []byte(b.String())
}
