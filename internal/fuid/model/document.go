package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the persisted identity state: one JSON object, read and
// replaced as a whole.
type Document struct {
	CompanyMappings map[string]string                       `json:"company_mappings"`
	ProductMappings map[string]map[string]string            `json:"product_mappings"`
	VersionMappings map[string]map[string]map[string]string `json:"version_mappings"`
	FUIDMappings    *FUIDTable                              `json:"fuid_mappings"`

	NextCompanyCounter int `json:"next_company_counter"`
	NextProductCounter int `json:"next_product_counter"`
	NextVersionCounter int `json:"next_version_counter"`
	NextFUIDCounter    int `json:"next_fuid_counter"`

	TotalCompanies int `json:"total_companies"`
	TotalProducts  int `json:"total_products"`
	TotalVersions  int `json:"total_versions"`
	TotalFUIDs     int `json:"total_fuids"`

	// Applications is the listing review queue. Nil when the file has none.
	Applications []Application `json:"-"`

	// Extra keeps top-level keys owned by other tools (embeddings, ...) so
	// a rewrite does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

const applicationsKey = "applications"

var documentKeys = []string{
	"company_mappings", "product_mappings", "version_mappings", "fuid_mappings",
	"next_company_counter", "next_product_counter", "next_version_counter", "next_fuid_counter",
	"total_companies", "total_products", "total_versions", "total_fuids",
}

// NewDocument returns an empty, well-formed document.
func NewDocument() *Document {
	d := &Document{}
	d.ensure()
	return d
}

func (d *Document) ensure() {
	if d.CompanyMappings == nil {
		d.CompanyMappings = map[string]string{}
	}
	if d.ProductMappings == nil {
		d.ProductMappings = map[string]map[string]string{}
	}
	if d.VersionMappings == nil {
		d.VersionMappings = map[string]map[string]map[string]string{}
	}
	if d.FUIDMappings == nil {
		d.FUIDMappings = NewFUIDTable()
	}
	for _, c := range []*int{&d.NextCompanyCounter, &d.NextProductCounter, &d.NextVersionCounter, &d.NextFUIDCounter} {
		if *c < 1 {
			*c = 1
		}
	}
}

// RecomputeTotals refreshes the derived total_* fields from the mappings.
func (d *Document) RecomputeTotals() {
	d.TotalFUIDs = d.FUIDMappings.Len()
	d.TotalCompanies = len(d.CompanyMappings)
	d.TotalProducts = 0
	for _, products := range d.ProductMappings {
		d.TotalProducts += len(products)
	}
	d.TotalVersions = 0
	for _, products := range d.VersionMappings {
		for _, versions := range products {
			d.TotalVersions += len(versions)
		}
	}
}

type documentAlias Document

func (d *Document) UnmarshalJSON(b []byte) error {
	var a documentAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	extra, err := splitExtra(b, documentKeys)
	if err != nil {
		return err
	}
	*d = Document(a)
	// a malformed applications value stays in Extra untouched
	if raw, ok := extra[applicationsKey]; ok {
		var apps []Application
		if json.Unmarshal(raw, &apps) == nil && apps != nil {
			d.Applications = apps
			delete(extra, applicationsKey)
		}
	}
	if len(extra) > 0 {
		d.Extra = extra
	}
	d.ensure()
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	d.ensure()
	b, err := json.Marshal(documentAlias(d))
	if err != nil {
		return nil, err
	}
	extra := d.Extra
	if d.Applications != nil {
		apps, err := json.Marshal(d.Applications)
		if err != nil {
			return nil, err
		}
		extra = make(map[string]json.RawMessage, len(d.Extra)+1)
		for k, v := range d.Extra {
			extra[k] = v
		}
		extra[applicationsKey] = apps
	}
	return mergeExtra(b, extra)
}

// FUIDTable is the fuid_mappings object. It keeps file order so that
// stable sorts over records tie-break the same way across restarts.
// Entries that fail to decode or validate are held as raw JSON and written
// back unchanged, so a rewrite never drops them.
type FUIDTable struct {
	keys     []string
	recs     map[string]*Record
	rejected []string
	raw      map[string]json.RawMessage
	rawKeys  []string
}

func NewFUIDTable() *FUIDTable {
	return &FUIDTable{recs: map[string]*Record{}, raw: map[string]json.RawMessage{}}
}

func (t *FUIDTable) Len() int { return len(t.keys) }

func (t *FUIDTable) Get(fuid string) (*Record, bool) {
	r, ok := t.recs[fuid]
	return r, ok
}

// Held reports whether fuid is occupied by an entry that was rejected on load.
func (t *FUIDTable) Held(fuid string) bool {
	_, ok := t.raw[fuid]
	return ok
}

// Insert appends r under r.FUID; it returns false when the key is taken,
// including by a rejected entry.
func (t *FUIDTable) Insert(r *Record) bool {
	if _, ok := t.recs[r.FUID]; ok || t.Held(r.FUID) {
		return false
	}
	t.keys = append(t.keys, r.FUID)
	t.recs[r.FUID] = r
	return true
}

// Records returns the records in file order.
func (t *FUIDTable) Records() []*Record {
	out := make([]*Record, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.recs[k])
	}
	return out
}

// Rejected lists keys whose value could not be decoded or validated.
func (t *FUIDTable) Rejected() []string { return t.rejected }

func (t *FUIDTable) reject(key string, raw json.RawMessage) {
	t.rejected = append(t.rejected, key)
	if _, dup := t.recs[key]; dup {
		return
	}
	if !t.Held(key) {
		t.rawKeys = append(t.rawKeys, key)
	}
	t.raw[key] = raw
}

func (t *FUIDTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(k string, v []byte) error {
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	for _, k := range t.keys {
		vb, err := json.Marshal(t.recs[k])
		if err != nil {
			return nil, err
		}
		if err := write(k, vb); err != nil {
			return nil, err
		}
	}
	for _, k := range t.rawKeys {
		if err := write(k, t.raw[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *FUIDTable) UnmarshalJSON(b []byte) error {
	*t = *NewFUIDTable()
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fuid_mappings: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fuid_mappings: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		rec := &Record{}
		if err := json.Unmarshal(raw, rec); err != nil {
			t.reject(key, raw)
			continue
		}
		if rec.FUID == "" {
			rec.FUID = key
		}
		if rec.FUID != key || rec.Validate() != nil || !t.Insert(rec) {
			t.reject(key, raw)
		}
	}
	_, err = dec.Token()
	return err
}
