package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/store"
)

// errStorageFault simulates a transient infrastructure failure.
var errStorageFault = errors.New("simulated storage fault")

type fakeCampaign struct {
	title         string
	currentAmount int64
	donorCount    int64
}

// fakeLedger is an in-memory stand-in for the PostgreSQL ledger. A single
// mutex emulates the row locks of the settlement transaction: only one
// transaction can hold the locked section at a time, and staged changes apply
// on commit or vanish on rollback.
type fakeLedger struct {
	mu        sync.Mutex
	subs      map[uuid.UUID]*domain.Subscription
	wallets   map[uuid.UUID]*domain.OwnerWallet
	campaigns map[uuid.UUID]*fakeCampaign
	donations []domain.Donation

	// failOn injects one fault at the named step: begin, lock, claim,
	// wallet, debit, insert, credit, commit.
	failOn string
	// failSubID restricts the injected fault to one subscription; the zero
	// value applies it to all.
	failSubID uuid.UUID
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		subs:      make(map[uuid.UUID]*domain.Subscription),
		wallets:   make(map[uuid.UUID]*domain.OwnerWallet),
		campaigns: make(map[uuid.UUID]*fakeCampaign),
	}
}

func (l *fakeLedger) addOwner(w domain.OwnerWallet) {
	l.wallets[w.OwnerID] = &w
}

func (l *fakeLedger) addCampaign(id uuid.UUID, title string) {
	l.campaigns[id] = &fakeCampaign{title: title}
}

func (l *fakeLedger) addSubscription(sub domain.Subscription) {
	l.subs[sub.ID] = &sub
}

func (l *fakeLedger) shouldFail(step string, subID uuid.UUID) bool {
	if l.failOn != step {
		return false
	}
	return l.failSubID == uuid.Nil || l.failSubID == subID
}

func (l *fakeLedger) BeginSettlement(ctx context.Context) (SettlementTx, error) {
	if l.failOn == "begin" {
		return nil, errStorageFault
	}
	return &fakeTx{
		ledger:        l,
		stagedDebits:  make(map[uuid.UUID]int64),
		stagedCredits: make(map[uuid.UUID]int64),
		stagedNextRun: make(map[uuid.UUID]time.Time),
	}, nil
}

type fakeTx struct {
	ledger   *fakeLedger
	locked   bool
	finished bool
	subID    uuid.UUID

	stagedDebits    map[uuid.UUID]int64
	stagedCredits   map[uuid.UUID]int64
	stagedNextRun   map[uuid.UUID]time.Time
	stagedDonations []domain.Donation
}

func (t *fakeTx) LockSubscription(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	t.ledger.mu.Lock()
	t.locked = true
	t.subID = subscriptionID

	if t.ledger.shouldFail("lock", subscriptionID) {
		return nil, errStorageFault
	}

	sub, ok := t.ledger.subs[subscriptionID]
	if !ok {
		return nil, store.ErrSubscriptionNotFound
	}
	if !sub.IsDue(now) {
		return nil, store.ErrSubscriptionNotDue
	}

	copied := *sub
	return &copied, nil
}

func (t *fakeTx) ClaimNextRun(ctx context.Context, subscriptionID uuid.UUID, nextExecutionAt time.Time) error {
	if t.ledger.shouldFail("claim", subscriptionID) {
		return errStorageFault
	}
	t.stagedNextRun[subscriptionID] = nextExecutionAt
	return nil
}

func (t *fakeTx) GetBalanceAndOwner(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerWallet, error) {
	if t.ledger.shouldFail("wallet", t.subID) {
		return nil, errStorageFault
	}
	wallet, ok := t.ledger.wallets[ownerID]
	if !ok {
		return nil, store.ErrOwnerNotFound
	}
	copied := *wallet
	return &copied, nil
}

func (t *fakeTx) DebitBalance(ctx context.Context, ownerID uuid.UUID, amount int64) error {
	if t.ledger.shouldFail("debit", t.subID) {
		return errStorageFault
	}
	wallet, ok := t.ledger.wallets[ownerID]
	if !ok {
		return store.ErrOwnerNotFound
	}
	if wallet.Balance-t.stagedDebits[ownerID] < amount {
		return store.ErrInsufficientBalance
	}
	t.stagedDebits[ownerID] += amount
	return nil
}

func (t *fakeTx) InsertDonation(ctx context.Context, d *domain.Donation) error {
	if t.ledger.shouldFail("insert", t.subID) {
		return errStorageFault
	}
	t.stagedDonations = append(t.stagedDonations, *d)
	return nil
}

func (t *fakeTx) CreditCampaign(ctx context.Context, campaignID uuid.UUID, amount int64) error {
	if t.ledger.shouldFail("credit", t.subID) {
		return errStorageFault
	}
	if _, ok := t.ledger.campaigns[campaignID]; !ok {
		return store.ErrCampaignNotFound
	}
	t.stagedCredits[campaignID] += amount
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.finished {
		return errors.New("commit on finished tx")
	}
	if t.ledger.shouldFail("commit", t.subID) {
		t.release()
		return errStorageFault
	}

	for ownerID, amount := range t.stagedDebits {
		t.ledger.wallets[ownerID].Balance -= amount
	}
	for campaignID, amount := range t.stagedCredits {
		c := t.ledger.campaigns[campaignID]
		c.currentAmount += amount
		c.donorCount++
	}
	for subID, nextAt := range t.stagedNextRun {
		at := nextAt
		t.ledger.subs[subID].NextExecutionAt = &at
	}
	t.ledger.donations = append(t.ledger.donations, t.stagedDonations...)

	t.release()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.finished {
		return nil
	}
	t.release()
	return nil
}

func (t *fakeTx) release() {
	t.finished = true
	if t.locked {
		t.locked = false
		t.ledger.mu.Unlock()
	}
}

// fakeScheduleStore records post-outcome schedule bookkeeping. It writes
// last_executed_at and next_execution_at through to the ledger's subscription
// map so repeated passes observe advanced schedules.
type fakeScheduleStore struct {
	mu           sync.Mutex
	ledger       *fakeLedger
	successCalls []uuid.UUID
	failureCalls []uuid.UUID
	retryAts     []time.Time
	err          error
}

func (s *fakeScheduleStore) RecordSuccess(ctx context.Context, subscriptionID uuid.UUID, executedAt, nextExecutionAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.successCalls = append(s.successCalls, subscriptionID)

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()
	if sub, ok := s.ledger.subs[subscriptionID]; ok {
		executed := executedAt
		next := nextExecutionAt
		sub.LastExecutedAt = &executed
		sub.NextExecutionAt = &next
	}
	return nil
}

func (s *fakeScheduleStore) RecordFailureReschedule(ctx context.Context, subscriptionID uuid.UUID, retryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.failureCalls = append(s.failureCalls, subscriptionID)
	s.retryAts = append(s.retryAts, retryAt)

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()
	if sub, ok := s.ledger.subs[subscriptionID]; ok {
		retry := retryAt
		sub.NextExecutionAt = &retry
	}
	return nil
}

// fakeNotifier collects notifications together with their outcome kind.
type fakeNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
	kinds         []NotificationKind
	err           error
}

func (n *fakeNotifier) Notify(ctx context.Context, ownerID uuid.UUID, kind NotificationKind, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notifications = append(n.notifications, domain.Notification{
		OwnerID: ownerID,
		Title:   title,
		Message: message,
	})
	n.kinds = append(n.kinds, kind)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}

// fakeDueLister serves a fixed due set to the runner.
type fakeDueLister struct {
	subs []domain.Subscription
	err  error
}

func (f *fakeDueLister) ListDue(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs, nil
}
