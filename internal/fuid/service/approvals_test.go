package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuid-service/internal/fuid/model"
)

const applicationsDoc = `{
  "applications": [
    {"id": "APP-1", "companyName": "Acme", "productName": "Widget", "userEmail": "dev@acme.io", "submittedDate": "2024-05-01", "status": "submitted", "tier": "gold"},
    {"id": "APP-2", "companyName": "Globex", "productName": "Gadget", "userEmail": "ops@globex.com", "status": "in-progress"},
    {"id": "APP-3", "companyName": "Acme", "productName": "Gizmo", "userEmail": "DEV@acme.io", "status": "approved", "fuid": "FUID-ACME:00001-0002-00"},
    {"id": "APP-4", "companyName": "Initech", "productName": "TPS", "userEmail": "bill@initech.com", "status": "rejected"}
  ]
}`

func newApprovalService(t *testing.T) *Service {
	t.Helper()
	s := New(newTestStore(t, applicationsDoc))
	s.now = func() time.Time { return time.Date(2024, 6, 2, 23, 30, 0, 0, time.FixedZone("X", -3*3600)) }
	return s
}

func applicationIDs(apps []model.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID)
	}
	return out
}

func TestApplicationQueues(t *testing.T) {
	s := newApprovalService(t)

	assert.Equal(t, []string{"APP-1", "APP-2"}, applicationIDs(s.PendingApplications()))
	assert.Equal(t, []string{"APP-3", "APP-4"}, applicationIDs(s.ApplicationHistory()))
	assert.Equal(t, []string{"APP-1", "APP-3"}, applicationIDs(s.UserApplications("Dev@Acme.IO")))
	assert.Empty(t, s.UserApplications("  "))
	assert.NotNil(t, s.UserApplications(""))

	empty := New(newTestStore(t, ""))
	assert.NotNil(t, empty.PendingApplications())
	assert.Empty(t, empty.ApplicationHistory())
}

func TestUpdateApplicationByID(t *testing.T) {
	s := newApprovalService(t)

	got, err := s.UpdateApplication(model.ApprovalUpdate{ID: "APP-1", Status: "approved", Comment: "  looks good ", FUID: "FUID-ACME:00001-0001-00"})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationApproved, got.Status)
	assert.Equal(t, "2024-06-03", got.StatusDate, "dates are UTC")
	assert.Equal(t, "internal", got.Reviewer)
	assert.Equal(t, "looks good", got.ReviewerComment)
	assert.Equal(t, "FUID-ACME:00001-0001-00", got.FUID)
	assert.Equal(t, "2024-05-01", got.SubmittedDate)

	assert.Equal(t, []string{"APP-2"}, applicationIDs(s.PendingApplications()))
	assert.Equal(t, []string{"APP-1", "APP-3", "APP-4"}, applicationIDs(s.ApplicationHistory()))

	// a later decision without a comment keeps the earlier one
	got, err = s.UpdateApplication(model.ApprovalUpdate{ID: "APP-1", Status: "in-progress", Reviewer: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "looks good", got.ReviewerComment)
	assert.Equal(t, "alice", got.Reviewer)

	doc := snapshot(t, s.Store())
	require.Len(t, doc.Applications, 4)
	assert.JSONEq(t, `"gold"`, string(doc.Applications[0].Extra["tier"]))
}

func TestUpdateApplicationBySubmission(t *testing.T) {
	s := newApprovalService(t)

	got, err := s.UpdateApplication(model.ApprovalUpdate{ID: "APP-missing", Status: "rejected", CompanyName: "Globex", ProductName: "Gadget", UserEmail: "OPS@globex.com"})
	require.NoError(t, err)
	assert.Equal(t, "APP-2", got.ID)
	assert.Equal(t, model.ApplicationRejected, got.Status)
	assert.Len(t, snapshot(t, s.Store()).Applications, 4)
}

func TestUpdateApplicationRecordsNewEntry(t *testing.T) {
	s := newApprovalService(t)

	got, err := s.UpdateApplication(model.ApprovalUpdate{Status: "in-progress", CompanyName: "Hooli", ProductName: "Nucleus", UserEmail: "gavin@hooli.xyz"})
	require.NoError(t, err)
	assert.Equal(t, "APP-1717381800000", got.ID)
	assert.Equal(t, "2024-06-03", got.SubmittedDate)

	apps := snapshot(t, s.Store()).Applications
	require.Len(t, apps, 5)
	assert.Equal(t, got.ID, apps[0].ID, "new entries go first")
	assert.Equal(t, []string{got.ID, "APP-1", "APP-2"}, applicationIDs(s.PendingApplications()))

	got, err = s.UpdateApplication(model.ApprovalUpdate{ID: "APP-9", Status: "approved", CompanyName: "Hooli", ProductName: "Box", UserEmail: "gavin@hooli.xyz"})
	require.NoError(t, err)
	assert.Equal(t, "APP-9", got.ID)
}

func TestUpdateApplicationErrors(t *testing.T) {
	s := newApprovalService(t)
	before := snapshot(t, s.Store())

	_, err := s.UpdateApplication(model.ApprovalUpdate{ID: "APP-1", Status: "submitted"})
	assert.ErrorIs(t, err, ErrInvalidApprovalStatus)
	assert.True(t, IsValidation(err))

	_, err = s.UpdateApplication(model.ApprovalUpdate{ID: "APP-1"})
	assert.ErrorIs(t, err, ErrInvalidApprovalStatus)

	_, err = s.UpdateApplication(model.ApprovalUpdate{ID: "APP-404", Status: "approved", CompanyName: "Acme"})
	assert.ErrorIs(t, err, ErrApplicationNotFound)
	assert.False(t, IsValidation(err))

	assert.Equal(t, before.Applications, snapshot(t, s.Store()).Applications)
}

func TestUpdateApplicationPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company_data.json")
	require.NoError(t, os.WriteFile(path, []byte(applicationsDoc), 0o644))
	st, err := OpenStore(path, zerolog.Nop())
	require.NoError(t, err)

	_, err = New(st).UpdateApplication(model.ApprovalUpdate{ID: "APP-2", Status: "approved"})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved struct {
		Applications []map[string]any `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(b, &saved))
	require.Len(t, saved.Applications, 4)
	assert.Equal(t, "approved", saved.Applications[1]["status"])
	assert.Equal(t, "gold", saved.Applications[0]["tier"])
}
