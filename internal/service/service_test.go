package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"go.uber.org/zap"
)

// memState - общее in-memory хранилище для тестов сервисов. Отдельные
// fake-типы ниже реализуют контракты из stores.go поверх одного состояния.
// CAS-семантика статусных переходов повторяет контракт pgx-репозиториев,
// поэтому конкурентные тесты дают те же гарантии, что и боевой код.
type memState struct {
	mu        sync.Mutex
	users     map[int64]*model.User
	requests  map[int64]*model.PartnerRequest
	slots     map[int64][]model.AvailabilitySlot
	proposals map[int64]*model.SessionProposal
	sessions  map[int64]*model.Session
	phases    map[[2]int64]model.CoordinationPhase
	nextID    int64
}

func newMemState() *memState {
	return &memState{
		users:     make(map[int64]*model.User),
		requests:  make(map[int64]*model.PartnerRequest),
		slots:     make(map[int64][]model.AvailabilitySlot),
		proposals: make(map[int64]*model.SessionProposal),
		sessions:  make(map[int64]*model.Session),
		phases:    make(map[[2]int64]model.CoordinationPhase),
	}
}

func (m *memState) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memState) addUser(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u
}

// addPair создаёт двух уже связанных партнёров
func (m *memState) addPair() (*model.User, *model.User) {
	a := m.addUser(&model.User{DisplayName: "Alice", Email: "alice@example.com"})
	b := m.addUser(&model.User{DisplayName: "Bob", Email: "bob@example.com"})
	m.mu.Lock()
	defer m.mu.Unlock()
	a.PartnerID = &b.ID
	b.PartnerID = &a.ID
	return a, b
}

// --- UserStore ---

type fakeUserStore struct{ s *memState }

func (f fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUserStore) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUserStore) Unlink(_ context.Context, userID, partnerID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.users[userID].PartnerID = nil
	f.s.users[partnerID].PartnerID = nil
	return nil
}

// --- PartnerRequestStore ---

type fakeRequestStore struct{ s *memState }

func (f fakeRequestStore) Create(_ context.Context, req *model.PartnerRequest) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	req.ID = f.s.id()
	req.CreatedAt = time.Now()
	cp := *req
	f.s.requests[req.ID] = &cp
	return nil
}

func (f fakeRequestStore) GetByID(_ context.Context, id int64) (*model.PartnerRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f fakeRequestStore) HasPendingBetween(_ context.Context, userA, userB int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.requests {
		if !r.IsPending() {
			continue
		}
		if (r.RequesterID == userA && r.TargetID == userB) ||
			(r.RequesterID == userB && r.TargetID == userA) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRequestStore) GetPendingForTarget(_ context.Context, targetID int64) ([]*model.PartnerRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*model.PartnerRequest
	for _, r := range f.s.requests {
		if r.IsPending() && r.TargetID == targetID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeRequestStore) Accept(_ context.Context, req *model.PartnerRequest, response string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.requests[req.ID]
	if !ok || !cur.IsPending() {
		return false, nil
	}
	if f.s.users[cur.RequesterID].PartnerID != nil || f.s.users[cur.TargetID].PartnerID != nil {
		return false, nil
	}
	now := time.Now()
	cur.Status = model.RequestStatusAccepted
	cur.Response = response
	cur.RespondedAt = &now
	f.s.users[cur.RequesterID].PartnerID = &cur.TargetID
	f.s.users[cur.TargetID].PartnerID = &cur.RequesterID
	a, b := model.OrderPair(cur.RequesterID, cur.TargetID)
	f.s.phases[[2]int64{a, b}] = model.PhaseWaitingAvailability
	*req = *cur
	return true, nil
}

func (f fakeRequestStore) Reject(_ context.Context, req *model.PartnerRequest, response string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.requests[req.ID]
	if !ok || !cur.IsPending() {
		return false, nil
	}
	now := time.Now()
	cur.Status = model.RequestStatusRejected
	cur.Response = response
	cur.RespondedAt = &now
	*req = *cur
	return true, nil
}

// --- AvailabilityStore ---

type fakeSlotStore struct{ s *memState }

func (f fakeSlotStore) GetByUserID(_ context.Context, userID int64) ([]model.AvailabilitySlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]model.AvailabilitySlot, len(f.s.slots[userID]))
	copy(out, f.s.slots[userID])
	return out, nil
}

func (f fakeSlotStore) ReplaceForUser(_ context.Context, userID int64, slots []model.AvailabilitySlot) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.slots[userID] = slots
	return nil
}

func (f fakeSlotStore) DeleteDay(_ context.Context, userID int64, day int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var kept []model.AvailabilitySlot
	for _, s := range f.s.slots[userID] {
		if s.Day != day {
			kept = append(kept, s)
		}
	}
	f.s.slots[userID] = kept
	return nil
}

// --- ProposalStore ---

type fakeProposalStore struct{ s *memState }

func (f fakeProposalStore) Create(_ context.Context, p *model.SessionProposal) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = f.s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.s.proposals[p.ID] = &cp
	return nil
}

func (f fakeProposalStore) GetByID(_ context.Context, id int64) (*model.SessionProposal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.proposals[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeProposalStore) GetPendingForUser(_ context.Context, userID int64) ([]*model.SessionProposal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*model.SessionProposal
	for _, p := range f.s.proposals {
		if p.IsPending() && (p.ProposerID == userID || p.PartnerID == userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeProposalStore) Accept(_ context.Context, p *model.SessionProposal, response string) (*model.Session, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.proposals[p.ID]
	if !ok || !cur.IsPending() {
		return nil, false, nil
	}
	session := &model.Session{
		ID:         f.s.id(),
		UserAID:    cur.ProposerID,
		UserBID:    cur.PartnerID,
		Date:       cur.Date,
		StartUnit:  cur.StartUnit,
		EndUnit:    cur.EndUnit,
		Status:     model.SessionStatusConfirmed,
		ProposalID: &cur.ID,
		CreatedAt:  time.Now(),
	}
	f.s.sessions[session.ID] = session
	cur.Status = model.ProposalStatusAccepted
	cur.Response = response
	cur.SessionID = &session.ID
	cur.UpdatedAt = time.Now()
	a, b := model.OrderPair(cur.ProposerID, cur.PartnerID)
	f.s.phases[[2]int64{a, b}] = model.PhaseSessionsConfirmed
	*p = *cur
	cp := *session
	return &cp, true, nil
}

func (f fakeProposalStore) TransitionStatus(_ context.Context, id int64, to model.ProposalStatus, response string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.proposals[id]
	if !ok || !cur.IsPending() {
		return false, nil
	}
	cur.Status = to
	cur.Response = response
	cur.UpdatedAt = time.Now()
	return true, nil
}

func (f fakeProposalStore) Counter(_ context.Context, original, counter *model.SessionProposal) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.proposals[original.ID]
	if !ok || !cur.IsPending() {
		return false, nil
	}
	cur.Status = model.ProposalStatusCounterProposed
	cur.UpdatedAt = time.Now()
	counter.ID = f.s.id()
	counter.CreatedAt = time.Now()
	counter.UpdatedAt = counter.CreatedAt
	cp := *counter
	f.s.proposals[counter.ID] = &cp
	*original = *cur
	return true, nil
}

// --- SessionStore ---

type fakeSessionStore struct{ s *memState }

func (f fakeSessionStore) GetByID(_ context.Context, id int64) (*model.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sess, ok := f.s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (f fakeSessionStore) GetUpcomingForUser(_ context.Context, userID int64) ([]*model.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*model.Session
	for _, sess := range f.s.sessions {
		if sess.Status == model.SessionStatusConfirmed && sess.HasParticipant(userID) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeSessionStore) Cancel(_ context.Context, id int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sess, ok := f.s.sessions[id]
	if !ok || sess.Status != model.SessionStatusConfirmed {
		return false, nil
	}
	sess.Status = model.SessionStatusCancelled
	return true, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
