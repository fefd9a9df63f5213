package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/repository/contract"
	"gym-membership-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store is an in-process backend for every repository contract. gymctl uses
// it for simulations and the service tests use it as their database.
// Transactions are not isolated: Rollback does not undo writes.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*entity.User
	memberships   map[int64]*entity.Membership
	addons        map[int64]*entity.MembershipAddon
	assignments   map[int64]*entity.TrainerAssignment
	payments      map[int64]*entity.MembershipPayment
	invoices      map[int64]*entity.Invoice
	emailEvents   map[string]*entity.EmailEvent
	emailFailures []*entity.EmailFailure
	notifications []*entity.Notification
	adminNotes    []*entity.Notification
	auditLogs     []*entity.AuditLog
	settings      map[string]string
	faults        map[string]error
	nextID        int64
}

func NewStore() *Store {
	return &Store{
		users:       map[uuid.UUID]*entity.User{},
		memberships: map[int64]*entity.Membership{},
		addons:      map[int64]*entity.MembershipAddon{},
		assignments: map[int64]*entity.TrainerAssignment{},
		payments:    map[int64]*entity.MembershipPayment{},
		invoices:    map[int64]*entity.Invoice{},
		emailEvents: map[string]*entity.EmailEvent{},
		settings:    map[string]string{},
		faults:      map[string]error{},
		nextID:      1000,
	}
}

var _ unitofwork.RepositoryFactory = (*Store)(nil)

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{s: s}
}

// Fail makes the named operation return err. Keys are "Op" or "Op:<id>".
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

func (s *Store) fault(op string, id interface{}) error {
	if err, ok := s.faults[fmt.Sprintf("%s:%v", op, id)]; ok {
		return err
	}
	return s.faults[op]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Seeding helpers. Zero ids are assigned.

func (s *Store) PutUser(u entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Id == uuid.Nil {
		u.Id = uuid.New()
	}
	s.users[u.Id] = &u
	return &u
}

func (s *Store) PutMembership(m entity.Membership) *entity.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Id == 0 {
		m.Id = s.id()
	}
	if m.PlanCategory == "" {
		m.PlanCategory = entity.CategorizePlan(m.PlanName)
	}
	if m.PlanMode == "" {
		m.PlanMode = entity.PlanModeInGym
	}
	s.memberships[m.Id] = &m
	cp := m
	return &cp
}

func (s *Store) PutAddon(a entity.MembershipAddon) *entity.MembershipAddon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Id == 0 {
		a.Id = s.id()
	}
	s.addons[a.Id] = &a
	cp := a
	return &cp
}

func (s *Store) PutAssignment(a entity.TrainerAssignment) *entity.TrainerAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Id == 0 {
		a.Id = s.id()
	}
	s.assignments[a.Id] = &a
	cp := a
	return &cp
}

func (s *Store) PutPayment(p entity.MembershipPayment) *entity.MembershipPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Id == 0 {
		p.Id = s.id()
	}
	s.payments[p.Id] = &p
	cp := p
	return &cp
}

func (s *Store) PutSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Snapshot accessors.

func (s *Store) Membership(id int64) *entity.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[id]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (s *Store) Addon(id int64) *entity.MembershipAddon {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.addons[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func (s *Store) Assignments(membershipId int64) []*entity.TrainerAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignmentsOf(membershipId)
}

func (s *Store) Payment(id int64) *entity.MembershipPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *Store) EmailEvents() []*entity.EmailEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.EmailEvent, 0, len(s.emailEvents))
	for _, e := range s.emailEvents {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out
}

func (s *Store) EmailFailures() []*entity.EmailFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.EmailFailure, len(s.emailFailures))
	for i, f := range s.emailFailures {
		cp := *f
		out[i] = &cp
	}
	return out
}

func (s *Store) Notifications() []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Notification(nil), s.notifications...)
}

func (s *Store) AdminNotifications() []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.Notification(nil), s.adminNotes...)
}

func (s *Store) AuditLogs() []*entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.AuditLog(nil), s.auditLogs...)
}

func (s *Store) Invoice(paymentId int64) *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoices[paymentId]
}

func (s *Store) assignmentsOf(membershipId int64) []*entity.TrainerAssignment {
	var out []*entity.TrainerAssignment
	for _, a := range s.assignments {
		if a.MembershipId == membershipId {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type unitOfWork struct {
	s *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.s.fault("Begin", "")
}

func (u *unitOfWork) Commit() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.s.fault("Commit", "")
}

func (u *unitOfWork) Rollback() error { return nil }

func (u *unitOfWork) UserRepository() contract.UserRepository             { return users{u.s} }
func (u *unitOfWork) MembershipRepository() contract.MembershipRepository { return memberships{u.s} }
func (u *unitOfWork) AddonRepository() contract.AddonRepository           { return addons{u.s} }
func (u *unitOfWork) AssignmentRepository() contract.AssignmentRepository { return assignments{u.s} }
func (u *unitOfWork) PaymentRepository() contract.PaymentRepository       { return payments{u.s} }
func (u *unitOfWork) InvoiceRepository() contract.InvoiceRepository       { return invoices{u.s} }
func (u *unitOfWork) EmailLedgerRepository() contract.EmailLedgerRepository {
	return ledger{u.s}
}
func (u *unitOfWork) NotificationRepository() contract.NotificationRepository {
	return notifications{u.s}
}
func (u *unitOfWork) AuditLogRepository() contract.AuditLogRepository { return audits{u.s} }
func (u *unitOfWork) SettingsRepository() contract.SettingsRepository { return settings{u.s} }

type users struct{ s *Store }

func (r users) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindUser", id); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type settings struct{ s *Store }

func (r settings) Get(ctx context.Context, key string) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("GetSetting", key); err != nil {
		return "", false, err
	}
	v, ok := r.s.settings[key]
	return v, ok, nil
}

type audits struct{ s *Store }

func (r audits) Create(ctx context.Context, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("CreateAudit", log.MembershipId); err != nil {
		return err
	}
	if log.Id == uuid.Nil {
		log.Id = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	cp := *log
	r.s.auditLogs = append(r.s.auditLogs, &cp)
	return nil
}

type notifications struct{ s *Store }

func (r notifications) CreateBulk(ctx context.Context, list []*entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("CreateNotifications", ""); err != nil {
		return err
	}
	for _, n := range list {
		if n.RecipientId == nil {
			continue
		}
		if n.Id == uuid.Nil {
			n.Id = uuid.New()
		}
		cp := *n
		r.s.notifications = append(r.s.notifications, &cp)
	}
	return nil
}

func (r notifications) CreateAdmin(ctx context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("CreateAdminNotification", ""); err != nil {
		return err
	}
	if n.Id == uuid.Nil {
		n.Id = uuid.New()
	}
	cp := *n
	r.s.adminNotes = append(r.s.adminNotes, &cp)
	return nil
}
