package model

import (
	"encoding/json"
	"strings"
)

// ApplicationStatus is the review state of a listing application.
type ApplicationStatus string

const (
	ApplicationSubmitted  ApplicationStatus = "submitted"
	ApplicationInProgress ApplicationStatus = "in-progress"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationRejected   ApplicationStatus = "rejected"
)

// Pending reports whether the application still waits for a decision.
func (s ApplicationStatus) Pending() bool {
	return s == ApplicationSubmitted || s == ApplicationInProgress
}

// Decided reports whether a reviewer approved or rejected the application.
func (s ApplicationStatus) Decided() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// Application is one entry of the document's applications list: a vendor's
// request to have a product listed, and the internal review of it. Dates are
// YYYY-MM-DD in UTC.
type Application struct {
	ID              string            `json:"id"`
	CompanyName     string            `json:"companyName"`
	ProductName     string            `json:"productName"`
	UserEmail       string            `json:"userEmail"`
	SubmittedDate   string            `json:"submittedDate,omitempty"`
	Status          ApplicationStatus `json:"status"`
	StatusDate      string            `json:"statusDate,omitempty"`
	Reviewer        string            `json:"reviewer,omitempty"`
	ReviewerComment string            `json:"reviewerComment,omitempty"`
	FUID            string            `json:"fuid,omitempty"`

	// Extra keeps fields the submitting front end added.
	Extra map[string]json.RawMessage `json:"-"`
}

// ApprovalUpdate is one reviewer decision. ID selects the application; the
// submission triple is the fallback match and, when nothing matches, the
// content of a new entry.
type ApprovalUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Comment     string `json:"comment"`
	Reviewer    string `json:"reviewer"`
	FUID        string `json:"fuid"`
	CompanyName string `json:"companyName"`
	ProductName string `json:"productName"`
	UserEmail   string `json:"userEmail"`
}

var applicationKeys = []string{
	"id", "companyName", "productName", "userEmail", "submittedDate",
	"status", "statusDate", "reviewer", "reviewerComment", "fuid",
}

// SameSubmission matches an application by company, product and submitter.
// Email comparison ignores case.
func (a *Application) SameSubmission(company, product, email string) bool {
	return a.CompanyName == company && a.ProductName == product && strings.EqualFold(a.UserEmail, email)
}

func (a *Application) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID              flexString `json:"id"`
		CompanyName     flexString `json:"companyName"`
		ProductName     flexString `json:"productName"`
		UserEmail       flexString `json:"userEmail"`
		SubmittedDate   flexString `json:"submittedDate"`
		Status          flexString `json:"status"`
		StatusDate      flexString `json:"statusDate"`
		Reviewer        flexString `json:"reviewer"`
		ReviewerComment flexString `json:"reviewerComment"`
		FUID            flexString `json:"fuid"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	extra, err := splitExtra(b, applicationKeys)
	if err != nil {
		return err
	}
	*a = Application{
		ID:              string(raw.ID),
		CompanyName:     string(raw.CompanyName),
		ProductName:     string(raw.ProductName),
		UserEmail:       string(raw.UserEmail),
		SubmittedDate:   string(raw.SubmittedDate),
		Status:          ApplicationStatus(raw.Status),
		StatusDate:      string(raw.StatusDate),
		Reviewer:        string(raw.Reviewer),
		ReviewerComment: string(raw.ReviewerComment),
		FUID:            string(raw.FUID),
		Extra:           extra,
	}
	return nil
}

type applicationAlias Application

func (a Application) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(applicationAlias(a))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, a.Extra)
}

// splitExtra returns the top-level keys of object b not listed in known, or
// nil when there are none.
func splitExtra(b []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// mergeExtra adds extra to the encoded object b. Keys b already has win.
func mergeExtra(b []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return b, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
