package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/model"
	"fuid-service/internal/semantic"
)

// Store owns the identity document. Reads share a lock; every write runs in
// one serialized transaction that persists before the lock is released.
type Store struct {
	mu      sync.RWMutex
	path    string // empty: memory only
	doc     *model.Document
	idx     *Index
	updated *time.Time
	log     zerolog.Logger
}

// OpenStore loads the document at path. A missing or corrupt file yields an
// empty store, see LoadDocument.
func OpenStore(path string, logger zerolog.Logger) (*Store, error) {
	doc, err := LoadDocument(path, logger)
	if err != nil {
		return nil, err
	}
	s := newStore(doc, logger)
	s.path = path
	s.updated = modTime(path)
	return s, nil
}

// NewMemoryStore wraps doc without a backing file. A nil doc starts empty.
func NewMemoryStore(doc *model.Document, logger zerolog.Logger) *Store {
	if doc == nil {
		doc = model.NewDocument()
	}
	return newStore(doc, logger)
}

func newStore(doc *model.Document, logger zerolog.Logger) *Store {
	raiseCounters(doc)
	return &Store{
		doc: doc,
		idx: buildIndex(doc.FUIDMappings.Records()),
		log: logger,
	}
}

// raiseCounters moves the company and product counters past every numeric
// suffix already in use, so records written by other tools or a stale
// counter never lead to a reused id.
func raiseCounters(doc *model.Document) {
	maxCompany, maxProduct := 0, 0
	seeCompany := func(id string) { maxCompany = max(maxCompany, companySuffix(id)) }
	seeProduct := func(id string) { maxProduct = max(maxProduct, productSuffix(id)) }

	for _, r := range doc.FUIDMappings.Records() {
		seeCompany(r.CompanyID)
		seeProduct(r.ProductID)
	}
	for _, id := range doc.CompanyMappings {
		seeCompany(id)
	}
	for _, products := range doc.ProductMappings {
		for _, id := range products {
			seeProduct(id)
		}
	}
	doc.NextCompanyCounter = max(doc.NextCompanyCounter, maxCompany+1)
	doc.NextProductCounter = max(doc.NextProductCounter, maxProduct+1)
}

// companySuffix reads NNNNN from PREFIX:NNNNN or UNKNOWNNNNNN; 0 otherwise.
func companySuffix(id string) int {
	var digits string
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		digits = id[i+1:]
	} else if rest, ok := strings.CutPrefix(id, "UNKNOWN"); ok {
		digits = rest
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func productSuffix(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// View is the read side of a store snapshot.
type View struct {
	doc *model.Document
	idx *Index
}

func (v *View) Records() []*model.Record { return v.doc.FUIDMappings.Records() }

func (v *View) Len() int { return v.doc.FUIDMappings.Len() }

// FindFUID returns the FUID stored for the exact normalized triple.
func (v *View) FindFUID(company, product, version string) (*model.Record, bool) {
	fuid, ok := v.idx.byTriple[tripleKey{company, product, version}]
	if !ok {
		return nil, false
	}
	return v.doc.FUIDMappings.Get(fuid)
}

// FindCompanyID consults the mapping table only.
func (v *View) FindCompanyID(company string) (string, bool) {
	id, ok := v.doc.CompanyMappings[company]
	return id, ok
}

// View runs fn under the read lock. fn must not retain the view.
func (s *Store) View(fn func(v *View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&View{doc: s.doc, idx: s.idx})
}

// Tx is a write transaction. Allocation helpers follow read-or-create
// semantics and report whether the entity already existed.
type Tx struct {
	View
	dirty bool
}

// AllocateCompanyID returns the id for a normalized company, backfilling it
// from FUID records before minting a new one.
func (tx *Tx) AllocateCompanyID(company string) (string, model.Status) {
	if id, ok := tx.doc.CompanyMappings[company]; ok {
		return id, model.StatusExisting
	}
	tx.dirty = true
	if id, ok := tx.idx.companyIDs[company]; ok {
		tx.doc.CompanyMappings[company] = id
		return id, model.StatusExisting
	}
	return tx.MintCompanyID(company), model.StatusNew
}

// MintCompanyID assigns company a fresh id, replacing any mapping it had.
func (tx *Tx) MintCompanyID(company string) string {
	tx.dirty = true
	id := CompanyID(company, tx.doc.NextCompanyCounter)
	tx.doc.NextCompanyCounter++
	tx.doc.CompanyMappings[company] = id
	if _, ok := tx.doc.ProductMappings[company]; !ok {
		tx.doc.ProductMappings[company] = map[string]string{}
	}
	return id
}

// AllocateProductID is AllocateCompanyID scoped to a company.
func (tx *Tx) AllocateProductID(company, product string) (string, model.Status) {
	products, ok := tx.doc.ProductMappings[company]
	if ok {
		if id, ok := products[product]; ok {
			return id, model.StatusExisting
		}
	} else {
		products = map[string]string{}
		tx.doc.ProductMappings[company] = products
	}
	tx.dirty = true
	if id, ok := tx.idx.productIDs[company][product]; ok {
		products[product] = id
		return id, model.StatusExisting
	}
	return tx.MintProductID(company, product), model.StatusNew
}

// MintProductID assigns (company, product) a fresh id, replacing any
// mapping it had.
func (tx *Tx) MintProductID(company, product string) string {
	tx.dirty = true
	products, ok := tx.doc.ProductMappings[company]
	if !ok {
		products = map[string]string{}
		tx.doc.ProductMappings[company] = products
	}
	id := ProductID(tx.doc.NextProductCounter)
	tx.doc.NextProductCounter++
	products[product] = id
	return id
}

// AllocateVersionID registers version under (company, product). The id is
// the version itself.
func (tx *Tx) AllocateVersionID(company, product, version string) (string, model.Status) {
	products, ok := tx.doc.VersionMappings[company]
	if !ok {
		products = map[string]map[string]string{}
		tx.doc.VersionMappings[company] = products
	}
	versions, ok := products[product]
	if !ok {
		versions = map[string]string{}
		products[product] = versions
	}
	if id, ok := versions[version]; ok {
		return id, model.StatusExisting
	}
	tx.dirty = true
	versions[version] = version
	tx.doc.NextVersionCounter++
	return version, model.StatusNew
}

// UpsertFUID inserts rec unless its FUID is taken. Existing records are
// never modified.
func (tx *Tx) UpsertFUID(rec *model.Record) bool {
	if !tx.doc.FUIDMappings.Insert(rec) {
		return false
	}
	tx.dirty = true
	tx.doc.NextFUIDCounter++
	tx.idx.add(rec)
	return true
}

// Update runs fn under the write lock. When fn changed the document it is
// persisted before Update returns. A failed save leaves the in-memory state
// in place; the next successful write carries it to disk.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{View: View{doc: s.doc, idx: s.idx}}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	s.doc.RecomputeTotals()
	now := time.Now().UTC()
	s.updated = &now
	if s.path == "" {
		return nil
	}
	if err := SaveDocument(s.path, s.doc); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("persist identity store")
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// Stats counts distinct entities across FUID records. Products are counted
// by name, so the same product sold by two companies counts once; versions
// are counted per (company, product).
func (s *Store) Stats() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	companies := map[string]struct{}{}
	products := map[string]struct{}{}
	versions := map[[3]string]struct{}{}
	for _, r := range s.doc.FUIDMappings.Records() {
		companies[r.Company] = struct{}{}
		products[r.Product] = struct{}{}
		versions[[3]string{r.Company, r.Product, r.Version}] = struct{}{}
	}
	st := model.Stats{
		TotalCompanies: len(companies),
		TotalProducts:  len(products),
		TotalVersions:  len(versions),
		TotalFUIDs:     s.doc.FUIDMappings.Len(),
	}
	if s.updated != nil {
		t := *s.updated
		st.LastUpdated = &t
	}
	return st
}

// Corpus returns the distinct company and product names, sorted. It is the
// input of the semantic index builder.
func (s *Store) Corpus() semantic.Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companies, products := s.idx.names()
	return semantic.Corpus{Companies: companies, Products: products}
}

// Document returns a deep copy of the current document.
func (s *Store) Document() (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc)
}
