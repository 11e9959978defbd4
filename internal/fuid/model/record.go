package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is the attribute set stored under one FUID. The first seven fields
// are always written by the generator; the rest come from bulk imports.
type Record struct {
	FUID            string `json:"fuid"`
	Company         string `json:"company"`
	CompanyID       string `json:"company_id"`
	Product         string `json:"product"`
	ProductID       string `json:"product_id"`
	Version         string `json:"version"`
	VersionID       string `json:"version_id"`
	Platform        string `json:"platform,omitempty"`
	URL             string `json:"url,omitempty"`
	Categories      string `json:"categories,omitempty"`
	LongDescription string `json:"longDescription,omitempty"`
}

var (
	ErrRecordNoFUID      = errors.New("record has no fuid")
	ErrRecordNoCompany   = errors.New("record has no company")
	ErrRecordNoCompanyID = errors.New("record has no company_id")
	ErrRecordNoProductID = errors.New("record has no product_id")
)

// Validate checks the fields identity reconciliation depends on.
func (r *Record) Validate() error {
	switch {
	case r.FUID == "":
		return ErrRecordNoFUID
	case strings.TrimSpace(r.Company) == "":
		return ErrRecordNoCompany
	case r.CompanyID == "":
		return ErrRecordNoCompanyID
	case r.ProductID == "":
		return ErrRecordNoProductID
	}
	return nil
}

// flexString accepts the loose shapes spreadsheet-derived documents carry:
// strings, numbers, booleans, arrays of those, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := flatten(v)
	if err != nil {
		return err
	}
	*f = flexString(s)
	return nil
}

func flatten(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			s, err := flatten(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", fmt.Errorf("unsupported value %T", v)
	}
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		FUID            flexString `json:"fuid"`
		Company         flexString `json:"company"`
		CompanyID       flexString `json:"company_id"`
		Product         flexString `json:"product"`
		ProductID       flexString `json:"product_id"`
		Version         flexString `json:"version"`
		VersionID       flexString `json:"version_id"`
		Platform        flexString `json:"platform"`
		URL             flexString `json:"url"`
		Categories      flexString `json:"categories"`
		LongDescription flexString `json:"longDescription"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Record{
		FUID:            string(raw.FUID),
		Company:         string(raw.Company),
		CompanyID:       string(raw.CompanyID),
		Product:         string(raw.Product),
		ProductID:       string(raw.ProductID),
		Version:         string(raw.Version),
		VersionID:       string(raw.VersionID),
		Platform:        string(raw.Platform),
		URL:             string(raw.URL),
		Categories:      string(raw.Categories),
		LongDescription: string(raw.LongDescription),
	}
	return nil
}
