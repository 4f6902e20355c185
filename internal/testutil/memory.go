// Package testutil holds in-memory repositories shared by application tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
)

// MemoryDB is an in-memory stand-in for the relational store. Every
// repository it hands out shares the same tables, so multi-step services
// (imports, migrations) can be exercised end to end without a database.
type MemoryDB struct {
	mu sync.Mutex

	Clients           map[uint]client.Client
	Notes             map[uint]client.ClientNote
	Beneficiaries     map[uint][]client.ClientBeneficiary
	Snapshots         map[uint]crm.Snapshot
	SavingProducts    map[uint]justification.SavingProduct
	ExistingProducts  map[uint]justification.ExistingProduct
	NewProducts       map[uint]justification.NewProduct
	FormInstances     map[uint]justification.FormInstance
	SignatureRequests map[uint]justification.ClientSignatureRequest

	nextID uint
}

// NewMemoryDB creates an empty MemoryDB
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		Clients:           make(map[uint]client.Client),
		Notes:             make(map[uint]client.ClientNote),
		Beneficiaries:     make(map[uint][]client.ClientBeneficiary),
		Snapshots:         make(map[uint]crm.Snapshot),
		SavingProducts:    make(map[uint]justification.SavingProduct),
		ExistingProducts:  make(map[uint]justification.ExistingProduct),
		NewProducts:       make(map[uint]justification.NewProduct),
		FormInstances:     make(map[uint]justification.FormInstance),
		SignatureRequests: make(map[uint]justification.ClientSignatureRequest),
	}
}

// Repositories returns repositories backed by the in-memory tables
func (m *MemoryDB) Repositories() *appshared.Repositories {
	return &appshared.Repositories{
		ClientRepo:           memClients{m},
		NoteRepo:             memNotes{m},
		BeneficiaryRepo:      memBeneficiaries{m},
		SnapshotRepo:         memSnapshots{m},
		SavingProductRepo:    memSaving{m},
		ExistingProductRepo:  memExisting{m},
		NewProductRepo:       memNew{m},
		FormInstanceRepo:     memForms{m},
		SignatureRequestRepo: memSigns{m},
	}
}

// TransactionScope returns a scope that runs against the same tables
func (m *MemoryDB) TransactionScope() appshared.TransactionScope {
	return appshared.NewNoOpTransactionScope(m.Repositories())
}

// AddClient stores a prepared copy of c and returns its ID
func (m *MemoryDB) AddClient(c client.Client) uint {
	_ = c.Prepare()
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.Clients[c.ID] = c
	return c.ID
}

// ClientByIDNumber returns the stored client with the given normalized ID
func (m *MemoryDB) ClientByIDNumber(idNumber string) (client.Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Clients {
		if client.Deref(c.IDNumber) == idNumber {
			return c, true
		}
	}
	return client.Client{}, false
}

// SnapshotList returns the stored snapshots ordered by ID
func (m *MemoryDB) SnapshotList() []crm.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.Snapshots, func(s crm.Snapshot) uint { return s.ID })
}

// id must be called with mu held
func (m *MemoryDB) id() uint {
	m.nextID++
	return m.nextID
}

func sortedValues[T any](rows map[uint]T, id func(T) uint) []T {
	out := make([]T, 0, len(rows))
	for _, v := range rows {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

func deleteAll[T any](m *MemoryDB, rows map[uint]T) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(rows))
	for k := range rows {
		delete(rows, k)
	}
	return n
}

// =============================================================================
// Clients
// =============================================================================

type memClients struct{ m *MemoryDB }

func (r memClients) FindByID(_ context.Context, id uint) (*client.Client, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.Clients[id]
	if !ok {
		return nil, shared.ErrClientNotFound
	}
	return &c, nil
}

func (r memClients) FindByIDNumber(_ context.Context, idNumber string) (*client.Client, error) {
	c, ok := r.m.ClientByIDNumber(idNumber)
	if !ok {
		return nil, shared.ErrClientNotFound
	}
	return &c, nil
}

func (r memClients) FindAll(_ context.Context) ([]client.Client, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return sortedValues(r.m.Clients, func(c client.Client) uint { return c.ID }), nil
}

func (r memClients) Save(_ context.Context, c *client.Client) error {
	if err := c.Prepare(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, other := range r.m.Clients {
		if id != c.ID && client.Deref(other.IDNumber) == client.Deref(c.IDNumber) {
			return shared.ErrDuplicateIDNumber
		}
	}
	if c.ID == 0 {
		c.ID = r.m.id()
	}
	r.m.Clients[c.ID] = *c
	return nil
}

func (r memClients) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.Clients[id]; !ok {
		return shared.ErrClientNotFound
	}
	delete(r.m.Clients, id)
	for sid, s := range r.m.Snapshots {
		if s.ClientID == id {
			delete(r.m.Snapshots, sid)
		}
	}
	for nid, n := range r.m.Notes {
		if n.ClientID == id {
			delete(r.m.Notes, nid)
		}
	}
	delete(r.m.Beneficiaries, id)
	return nil
}

// =============================================================================
// Notes and beneficiaries
// =============================================================================

type memNotes struct{ m *MemoryDB }

func (r memNotes) FindByID(_ context.Context, id uint) (*client.ClientNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.Notes[id]
	if !ok {
		return nil, shared.ErrNoteNotFound
	}
	return &n, nil
}

func (r memNotes) FindByClient(_ context.Context, clientID uint) ([]client.ClientNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []client.ClientNote
	for _, n := range sortedValues(r.m.Notes, func(n client.ClientNote) uint { return n.ID }) {
		if n.ClientID == clientID {
			out = append([]client.ClientNote{n}, out...)
		}
	}
	return out, nil
}

func (r memNotes) FindPendingReminders(_ context.Context) ([]client.ClientNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []client.ClientNote
	for _, n := range sortedValues(r.m.Notes, func(n client.ClientNote) uint { return n.ID }) {
		if n.ReminderAt != nil && n.DismissedAt == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotes) Save(_ context.Context, note *client.ClientNote) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if note.ID == 0 {
		note.ID = r.m.id()
	}
	r.m.Notes[note.ID] = *note
	return nil
}

func (r memNotes) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.Notes[id]; !ok {
		return shared.ErrNoteNotFound
	}
	delete(r.m.Notes, id)
	return nil
}

func (r memNotes) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.Notes), nil
}

type memBeneficiaries struct{ m *MemoryDB }

func (r memBeneficiaries) FindByClient(_ context.Context, clientID uint) ([]client.ClientBeneficiary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]client.ClientBeneficiary(nil), r.m.Beneficiaries[clientID]...), nil
}

func (r memBeneficiaries) ReplaceForClient(_ context.Context, clientID uint, items []client.ClientBeneficiary) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.Beneficiaries[clientID] = append([]client.ClientBeneficiary(nil), items...)
	return nil
}

// =============================================================================
// Snapshots
// =============================================================================

type memSnapshots struct{ m *MemoryDB }

func (r memSnapshots) filter(keep func(crm.Snapshot) bool) []crm.Snapshot {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []crm.Snapshot
	for _, s := range sortedValues(r.m.Snapshots, func(s crm.Snapshot) uint { return s.ID }) {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r memSnapshots) FindByClient(_ context.Context, clientID uint) ([]crm.Snapshot, error) {
	out := r.filter(func(s crm.Snapshot) bool { return s.ClientID == clientID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].SnapshotDate > out[j].SnapshotDate })
	return out, nil
}

func (r memSnapshots) FindActive(_ context.Context) ([]crm.Snapshot, error) {
	return r.filter(func(s crm.Snapshot) bool { return s.IsActive }), nil
}

func (r memSnapshots) FindActiveByClient(_ context.Context, clientID uint) ([]crm.Snapshot, error) {
	return r.filter(func(s crm.Snapshot) bool { return s.IsActive && s.ClientID == clientID }), nil
}

func (r memSnapshots) FindByClientAndFund(_ context.Context, clientID uint, fundNumber string) ([]crm.Snapshot, error) {
	out := r.filter(func(s crm.Snapshot) bool {
		return s.IsActive && s.ClientID == clientID && s.FundNumberOrEmpty() == fundNumber
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].SnapshotDate < out[j].SnapshotDate })
	return out, nil
}

func (r memSnapshots) FindByKey(_ context.Context, key crm.SnapshotKey) (*crm.Snapshot, error) {
	out := r.filter(func(s crm.Snapshot) bool {
		return s.ClientID == key.ClientID && s.FundNumberOrEmpty() == key.FundNumber &&
			s.SnapshotDate == key.Date && s.SourceOrEmpty() == key.Source
	})
	if len(out) == 0 {
		return nil, shared.ErrNotFound
	}
	return &out[0], nil
}

func (r memSnapshots) Save(_ context.Context, s *crm.Snapshot) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.m.id()
	}
	r.m.Snapshots[s.ID] = *s
	return nil
}

func (r memSnapshots) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.Snapshots), nil
}

// =============================================================================
// Justification products
// =============================================================================

type memSaving struct{ m *MemoryDB }

func (r memSaving) FindAll(_ context.Context) ([]justification.SavingProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := sortedValues(r.m.SavingProducts, func(p justification.SavingProduct) uint { return p.ID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompanyName != out[j].CompanyName {
			return out[i].CompanyName < out[j].CompanyName
		}
		return out[i].FundName < out[j].FundName
	})
	return out, nil
}

func (r memSaving) FindByKey(_ context.Context, key [4]string) (*justification.SavingProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range sortedValues(r.m.SavingProducts, func(p justification.SavingProduct) uint { return p.ID }) {
		if p.Key() == key {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memSaving) Save(_ context.Context, p *justification.SavingProduct) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.m.id()
	}
	r.m.SavingProducts[p.ID] = *p
	return nil
}

func (r memSaving) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.SavingProducts), nil
}

type memExisting struct{ m *MemoryDB }

func (r memExisting) FindByID(_ context.Context, id uint) (*justification.ExistingProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.ExistingProducts[id]
	if !ok {
		return nil, shared.ErrExistingProductNotFound
	}
	return &p, nil
}

func (r memExisting) FindByClient(_ context.Context, clientID uint) ([]justification.ExistingProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []justification.ExistingProduct
	for _, p := range sortedValues(r.m.ExistingProducts, func(p justification.ExistingProduct) uint { return p.ID }) {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memExisting) FindByPersonalNumber(_ context.Context, personalNumber string) (*justification.ExistingProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.ExistingProducts {
		if p.PersonalNumber == personalNumber {
			return &p, nil
		}
	}
	return nil, shared.ErrExistingProductNotFound
}

func (r memExisting) Save(_ context.Context, p *justification.ExistingProduct) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.m.id()
	}
	r.m.ExistingProducts[p.ID] = *p
	return nil
}

func (r memExisting) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.ExistingProducts[id]; !ok {
		return shared.ErrExistingProductNotFound
	}
	delete(r.m.ExistingProducts, id)
	return nil
}

func (r memExisting) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.ExistingProducts), nil
}

type memNew struct{ m *MemoryDB }

func (r memNew) FindByID(_ context.Context, id uint) (*justification.NewProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.NewProducts[id]
	if !ok {
		return nil, shared.ErrNewProductNotFound
	}
	return &p, nil
}

func (r memNew) FindByClient(_ context.Context, clientID uint) ([]justification.NewProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []justification.NewProduct
	for _, p := range sortedValues(r.m.NewProducts, func(p justification.NewProduct) uint { return p.ID }) {
		if p.ClientID == clientID {
			out = append([]justification.NewProduct{p}, out...)
		}
	}
	return out, nil
}

func (r memNew) FindByPersonalNumber(_ context.Context, personalNumber string) (*justification.NewProduct, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.NewProducts {
		if strings.TrimSpace(p.PersonalNumberOrEmpty()) == personalNumber {
			return &p, nil
		}
	}
	return nil, shared.ErrNewProductNotFound
}

func (r memNew) Save(_ context.Context, p *justification.NewProduct) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.m.id()
	}
	r.m.NewProducts[p.ID] = *p
	return nil
}

func (r memNew) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.NewProducts[id]; !ok {
		return shared.ErrNewProductNotFound
	}
	delete(r.m.NewProducts, id)
	return nil
}

func (r memNew) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.NewProducts), nil
}

type memForms struct{ m *MemoryDB }

func (r memForms) FindByID(_ context.Context, id uint) (*justification.FormInstance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.FormInstances[id]
	if !ok {
		return nil, shared.ErrFormInstanceNotFound
	}
	return &f, nil
}

func (r memForms) FindByNewProduct(_ context.Context, newProductID uint) ([]justification.FormInstance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []justification.FormInstance
	for _, f := range sortedValues(r.m.FormInstances, func(f justification.FormInstance) uint { return f.ID }) {
		if f.NewProductID == newProductID {
			out = append([]justification.FormInstance{f}, out...)
		}
	}
	return out, nil
}

func (r memForms) Save(_ context.Context, f *justification.FormInstance) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if f.ID == 0 {
		f.ID = r.m.id()
	}
	r.m.FormInstances[f.ID] = *f
	return nil
}

func (r memForms) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.FormInstances[id]; !ok {
		return shared.ErrFormInstanceNotFound
	}
	delete(r.m.FormInstances, id)
	return nil
}

func (r memForms) DeleteAll(_ context.Context) (int64, error) {
	return deleteAll(r.m, r.m.FormInstances), nil
}

type memSigns struct{ m *MemoryDB }

func (r memSigns) FindByToken(_ context.Context, token string) (*justification.ClientSignatureRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.SignatureRequests {
		if s.Token == token {
			return &s, nil
		}
	}
	return nil, shared.ErrSignatureRequestNotFound
}

func (r memSigns) Save(_ context.Context, s *justification.ClientSignatureRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.m.id()
	}
	r.m.SignatureRequests[s.ID] = *s
	return nil
}
