package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuid-service/internal/fileio"
	"fuid-service/internal/fuid/model"
	"fuid-service/internal/fuid/service"
)

func listings() []Entry {
	return []Entry{
		{FUID: "FUID-ACMES:00001-0001-2.1", Platform: "AWS", Company: "acme", CompanyID: "ACMES:00001", Product: "widget", Version: "2.1"},
		{FUID: "FUID-ACMES:00001-0001-2.1", Platform: "Azure", Company: "acme", CompanyID: "ACMES:00001", Product: "widget", Version: "2.1"},
		{FUID: "FUID-ACMES:00001-0001-2.1", Platform: "AWS", Company: "acme", CompanyID: "ACMES:00001", Product: "widget", Version: "2.1"},
		{FUID: "FUID-ACMES:00001-0002-00", Platform: "GCP", Company: "acme", CompanyID: "ACMES:00001", Product: "gadget", Version: "00"},
		{FUID: "FUID-GLOBE:00002-0001-00", Platform: "", Company: "globex", CompanyID: "GLOBE:00002", Product: "widget", Version: "NO VERSION FOUND"},
		{FUID: "FUID-GLOBE:00002-0001-00", Platform: "", Company: "globex", CompanyID: "GLOBE:00002", Product: "widget", Version: ""},
	}
}

func TestDuplicates(t *testing.T) {
	sum := Duplicates(listings())

	assert.Equal(t, 6, sum.TotalEntries)
	assert.Equal(t, 3, sum.UniqueFUIDs)
	assert.Equal(t, 2, sum.Duplicated)
	assert.Equal(t, 1, sum.MultiPlatform)
	require.Len(t, sum.Duplicates, 2)

	assert.Equal(t, Duplicate{
		FUID:          "FUID-ACMES:00001-0001-2.1",
		Occurrences:   3,
		Platforms:     []string{"AWS", "Azure"},
		PlatformCount: 2,
	}, sum.Duplicates[0])
	assert.Equal(t, Duplicate{
		FUID:          "FUID-GLOBE:00002-0001-00",
		Occurrences:   2,
		Platforms:     []string{"Unknown"},
		PlatformCount: 0,
	}, sum.Duplicates[1])
}

func TestDuplicatesEmpty(t *testing.T) {
	sum := Duplicates(nil)
	assert.Zero(t, sum.TotalEntries)
	assert.Empty(t, sum.Duplicates)
}

func TestMarketplace(t *testing.T) {
	sum := Marketplace(listings())

	assert.Equal(t, 6, sum.TotalListings)
	assert.Equal(t, 2, sum.Vendors)
	assert.Equal(t, 3, sum.UniqueFUIDs)
	assert.InDelta(t, 1.5, sum.AvgFUIDsPerVendor, 1e-9)
	assert.Equal(t, 3, sum.WithVersion)
	assert.Equal(t, 3, sum.WithoutVersion)

	require.Len(t, sum.Platforms, 4)
	assert.Equal(t, "AWS", sum.Platforms[0].Platform)
	assert.Equal(t, 2, sum.Platforms[0].Listings)
	assert.Equal(t, 1, sum.Platforms[0].UniqueFUIDs)
	assert.InDelta(t, 100.0/3, sum.Platforms[0].Share, 1e-9)
	assert.Equal(t, 1, sum.Platforms[0].Companies)
	assert.Equal(t, 1, sum.Platforms[0].Products)
	assert.Equal(t, "Unknown", sum.Platforms[1].Platform)

	// widget: AWS, Azure, Unknown; gadget: GCP
	assert.Equal(t, 1, sum.ProductsOnTwoPlus)
	assert.Zero(t, sum.ProductsOnExactlyTwo)
	assert.Zero(t, sum.ProductsOnAll)

	require.Len(t, sum.TopVendors, 2)
	assert.Equal(t, VendorStat{CompanyID: "ACMES:00001", Company: "acme", FUIDs: 2}, sum.TopVendors[0])
}

func TestMarketplaceEmpty(t *testing.T) {
	sum := Marketplace(nil)
	assert.Zero(t, sum.Vendors)
	assert.Zero(t, sum.AvgFUIDsPerVendor)
}

func TestEntriesFromRows(t *testing.T) {
	rows := []map[string]string{
		{"fuid": "FUID-A", "platform": "AWS", "company": "acme", "company_id": "ACMES:00001", "product": "widget", "version": "1"},
		{"fuid": "", "platform": "AWS", "company": "acme", "company_id": "ACMES:00001", "product": "gadget", "version": "1"},
		{"fuid": " FUID-B ", "platform": "GCP", "company": "acme", "company_id": "ACMES:00001", "product": "gadget", "version": ""},
	}
	got := EntriesFromRows(rows)
	require.Len(t, got, 2)
	assert.Equal(t, Entry{FUID: "FUID-A", Platform: "AWS", Company: "acme", CompanyID: "ACMES:00001", Product: "widget", Version: "1"}, got[0])
	assert.Equal(t, "FUID-B", got[1].FUID)

	assert.Nil(t, EntriesFromRows(nil))
}

func TestEntriesFromRecords(t *testing.T) {
	got := EntriesFromRecords([]*model.Record{{
		FUID: "FUID-ACMES:00001-0001-2", Company: "acme", CompanyID: "ACMES:00001",
		Product: "widget", ProductID: "0001", Version: "2", VersionID: "2", Platform: "AWS",
	}})
	require.Len(t, got, 1)
	assert.Equal(t, "AWS", got[0].Platform)
	assert.Equal(t, "2", got[0].Version)
}

func TestEntriesFromImport(t *testing.T) {
	got := EntriesFromImport([]service.ImportRow{
		{Line: 2, Company: "Acme", Product: "Widget", Version: "1", Platform: "AWS", FUID: "FUID-ACME:00001-0001-1", Status: "New"},
		{Line: 3, Company: "", Product: "Widget", Status: "Failed", Error: "company name is required"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "FUID-ACME:00001-0001-1", got[0].FUID)
	assert.Equal(t, "AWS", got[0].Platform)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(listings())))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Duplicates.Duplicated)
	assert.Equal(t, 2, got.Marketplace.Vendors)
}

func TestWriteXLSX(t *testing.T) {
	entries := listings()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Duplicates(entries), Marketplace(entries)))

	// The first sheet is the summary.
	rows, err := fileio.ReadAnyMaps(bytes.NewReader(buf.Bytes()), "report.xlsx", 1)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Total entries", rows[0]["Metric"])
	assert.Equal(t, "6", rows[0]["Value"])
}
