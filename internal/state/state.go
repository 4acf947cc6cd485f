package state

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Step is the tag of the multi-step flow a chat is currently in.
type Step string

const (
	Idle Step = ""

	AwaitingName        Step = "awaiting_name"
	AwaitingPrice       Step = "awaiting_price"
	AwaitingQuantity    Step = "awaiting_quantity"
	AwaitingPhoto       Step = "awaiting_photo"
	AwaitingPhotoUpload Step = "awaiting_photo_upload"

	AwaitingEditID      Step = "awaiting_edit_id"
	AwaitingEditDetails Step = "awaiting_edit_details"

	AwaitingTopUpAmount Step = "awaiting_topup_amount"
)

// IsAdminFlow reports whether the step belongs to product entry or editing.
func (s Step) IsAdminFlow() bool {
	switch s {
	case AwaitingName, AwaitingPrice, AwaitingQuantity, AwaitingPhoto, AwaitingPhotoUpload,
		AwaitingEditID, AwaitingEditDetails:
		return true
	}
	return false
}

type ProductDraft struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	ImageRef string
}

type EditDraft struct {
	ProductNumber int64
}

type PurchaseDraft struct {
	ProductNumber int64
}

// Session is the scratch record of one chat. Fields of flows other than the
// current one stay zero.
type Session struct {
	Step     Step
	Product  ProductDraft
	Edit     EditDraft
	Purchase PurchaseDraft
}

// Store keeps one Session per chat id. Every method is atomic.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	chatMu sync.Mutex
	chats  map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		chats:    make(map[int64]*chatLock),
	}
}

// Get returns a copy of the chat's session, or an idle one.
func (s *Store) Get(chatID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[chatID]; ok {
		return *sess
	}
	return Session{}
}

func (s *Store) State(chatID int64) Step {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess.Step
	}
	return Idle
}

// SetState moves the chat to step. Setting Idle drops the whole session.
func (s *Store) SetState(chatID int64, step Step) {
	if step == Idle {
		s.Clear(chatID)
		return
	}
	s.Update(chatID, func(sess *Session) { sess.Step = step })
}

// Update mutates the chat's session under the store lock.
func (s *Store) Update(chatID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{}
		s.sessions[chatID] = sess
	}
	fn(sess)
	if *sess == (Session{}) {
		delete(s.sessions, chatID)
	}
}

// Clear removes the step and every scratch field of the chat.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Lock serializes event handling for one chat and returns the unlock func.
// Different chats never block each other.
func (s *Store) Lock(chatID int64) func() {
	s.chatMu.Lock()
	l, ok := s.chats[chatID]
	if !ok {
		l = &chatLock{}
		s.chats[chatID] = l
	}
	l.refs++
	s.chatMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.chatMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.chats, chatID)
		}
		s.chatMu.Unlock()
	}
}
