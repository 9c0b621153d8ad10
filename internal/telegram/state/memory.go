package state

import "sync"

type chatState struct {
	busy sync.Mutex
	sess Session
}

// MemoryStore keeps sessions in process memory. Sessions are transient and do
// not survive a restart, matching the intake flow semantics.
type MemoryStore struct {
	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[int64]*chatState)}
}

func (s *MemoryStore) entry(chatID int64) *chatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.chats[chatID]
	if !ok {
		cs = &chatState{sess: Session{Step: StepIdle}}
		s.chats[chatID] = cs
	}
	return cs
}

// Get returns a copy of the chat session.
func (s *MemoryStore) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.chats[chatID]
	if !ok {
		return Session{Step: StepIdle}
	}
	return cs.sess
}

// SetStep moves the chat to step, keeping accumulated fields.
func (s *MemoryStore) SetStep(chatID int64, step Step) {
	cs := s.entry(chatID)
	s.mu.Lock()
	cs.sess.Step = step
	s.mu.Unlock()
}

// Update applies fn to the chat session.
func (s *MemoryStore) Update(chatID int64, fn func(*Session)) {
	cs := s.entry(chatID)
	s.mu.Lock()
	fn(&cs.sess)
	s.mu.Unlock()
}

// Clear resets the chat to idle and drops all fields.
func (s *MemoryStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.chats[chatID]; ok {
		cs.sess = Session{Step: StepIdle}
	}
}

// InProgress reports whether the chat is past idle.
func (s *MemoryStore) InProgress(chatID int64) bool {
	return s.Get(chatID).Step != StepIdle
}

// Acquire blocks until the chat is free of other handlers. Updates from the
// same chat are processed one at a time; different chats never contend.
func (s *MemoryStore) Acquire(chatID int64) func() {
	cs := s.entry(chatID)
	cs.busy.Lock()
	return cs.busy.Unlock
}
