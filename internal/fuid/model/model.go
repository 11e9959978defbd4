package model

import "time"

// Status of an entity in a generate result.
type Status string

const (
	StatusNew      Status = "New"
	StatusExisting Status = "Existing"
)

// SearchType narrows an autosuggest selection.
type SearchType string

const (
	SearchCompany SearchType = "company"
	SearchProduct SearchType = "product"
)

// PlatformAll disables platform filtering.
const PlatformAll = "All"

// Match types reported in search results.
const (
	TypeFUIDMatch    = "FUID Match"
	TypeCompanyMatch = "Company Match"
	TypeProductMatch = "Product Match"
	TypeClosestMatch = "Closest Match"
)

type GenerateRequest struct {
	Company    string `json:"company_name"`
	Product    string `json:"product_name"`
	Version    string `json:"version"`
	Platform   string `json:"platform,omitempty"`
	URL        string `json:"url,omitempty"`
	Categories string `json:"categories,omitempty"`
}

type EntityResult struct {
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
	ID         string `json:"id"`
	Status     Status `json:"status"`
}

type VersionResult struct {
	Version string `json:"version"`
	ID      string `json:"id"`
	Status  Status `json:"status"`
}

type GenerateResult struct {
	FUID       string        `json:"fuid"`
	Company    EntityResult  `json:"company"`
	Product    EntityResult  `json:"product"`
	Version    VersionResult `json:"version"`
	FUIDStatus Status        `json:"fuid_status"`
}

// IsNew reports whether the call minted a new FUID.
func (r GenerateResult) IsNew() bool { return r.FUIDStatus == StatusNew }

type SearchRequest struct {
	Query          string     `json:"query"`
	SearchType     SearchType `json:"search_type,omitempty"`
	SelectedItem   string     `json:"selected_item,omitempty"`
	K              int        `json:"k_val,omitempty"`
	PlatformFilter string     `json:"platform_filter,omitempty"`
}

type UnifiedRequest struct {
	Query          string `json:"query"`
	K              int    `json:"k_val,omitempty"`
	PlatformFilter string `json:"platform_filter,omitempty"`
}

// Match is one ranked search hit.
type Match struct {
	Type                string   `json:"type"`
	FUID                string   `json:"fuid"`
	Company             string   `json:"company"`
	CompanyID           string   `json:"company_id"`
	Product             string   `json:"product"`
	ProductID           string   `json:"product_id"`
	Version             string   `json:"version"`
	VersionID           string   `json:"version_id"`
	URL                 string   `json:"url"`
	Categories          string   `json:"categories"`
	Platform            string   `json:"platform"`
	RelevanceScore      float64  `json:"relevance_score"`
	FuzzySimilarity     float64  `json:"fuzzy_similarity"`
	EmbeddingSimilarity *float64 `json:"embedding_similarity,omitempty"`
	ClosestMatch        string   `json:"closest_match,omitempty"`
	OriginalQuery       string   `json:"original_query,omitempty"`
}

// NewMatch copies the record attributes into a hit with the given scores.
func NewMatch(typ string, r *Record, relevance, fuzzy float64) Match {
	return Match{
		Type:            typ,
		FUID:            r.FUID,
		Company:         r.Company,
		CompanyID:       r.CompanyID,
		Product:         r.Product,
		ProductID:       r.ProductID,
		Version:         r.Version,
		VersionID:       r.VersionID,
		URL:             r.URL,
		Categories:      r.Categories,
		Platform:        r.Platform,
		RelevanceScore:  relevance,
		FuzzySimilarity: fuzzy,
	}
}

type Stats struct {
	TotalCompanies int        `json:"total_companies"`
	TotalProducts  int        `json:"total_products"`
	TotalVersions  int        `json:"total_versions"`
	TotalFUIDs     int        `json:"total_fuids"`
	LastUpdated    *time.Time `json:"last_updated"`
}
