// Package memory holds a single-node implementation of every repository. All
// state is guarded by one lock so multi-step writes (register, get-or-create,
// pin limit) are atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

type pairKey struct{ a, b string }

// Store keeps users, chats, messages and per user state in maps.
type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	userNames map[string]string

	chats     map[string]models.Chat
	chatPairs map[pairKey]string

	messages     map[string]*models.Message
	chatMessages map[string][]string
	seq          int64

	typing   map[pairKey]models.TypingSignal
	pins     map[pairKey]models.Pin
	receipts map[pairKey]models.ReadReceipt
}

var (
	_ repositories.UserRepository    = (*Store)(nil)
	_ repositories.ChatRepository    = (*Store)(nil)
	_ repositories.MessageRepository = (*Store)(nil)
	_ repositories.TypingRepository  = (*Store)(nil)
	_ repositories.PinRepository     = (*Store)(nil)
	_ repositories.ReadRepository    = (*Store)(nil)
)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:        map[string]models.User{},
		userNames:    map[string]string{},
		chats:        map[string]models.Chat{},
		chatPairs:    map[pairKey]string{},
		messages:     map[string]*models.Message{},
		chatMessages: map[string][]string{},
		typing:       map[pairKey]models.TypingSignal{},
		pins:         map[pairKey]models.Pin{},
		receipts:     map[pairKey]models.ReadReceipt{},
	}
}

// Users

func (s *Store) UpsertUserByName(_ context.Context, name string, now time.Time) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.userNames[name]; ok {
		user := s.users[id]
		user.Online = true
		user.LastSeenAt = now
		s.users[id] = user
		return user, false, nil
	}
	user := models.User{ID: uuid.NewString(), Name: name, Online: true, LastSeenAt: now, CreatedAt: now}
	s.users[user.ID] = user
	s.userNames[name] = user.ID
	return user, true, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *Store) TouchUser(_ context.Context, userID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	user.Online = true
	user.LastSeenAt = now
	s.users[userID] = user
	return true, nil
}

func (s *Store) SetUserOffline(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.Online = false
		s.users[userID] = user
	}
	return nil
}

func (s *Store) MarkStaleUsersOffline(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, user := range s.users {
		if user.Online && user.LastSeenAt.Before(cutoff) {
			user.Online = false
			s.users[id] = user
			changed++
		}
	}
	return changed, nil
}

// Chats

func (s *Store) CreateOrGetChat(_ context.Context, user1ID, user2ID string, now time.Time) (models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{user1ID, user2ID}
	if id, ok := s.chatPairs[key]; ok {
		return s.chats[id], false, nil
	}
	chat := models.Chat{ID: uuid.NewString(), User1ID: user1ID, User2ID: user2ID, CreatedAt: now}
	s.chats[chat.ID] = chat
	s.chatPairs[key] = chat.ID
	return chat, true, nil
}

func (s *Store) FindChat(_ context.Context, user1ID, user2ID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.chatPairs[pairKey{user1ID, user2ID}]
	if !ok {
		return models.Chat{}, repositories.ErrChatNotFound
	}
	return s.chats[id], nil
}

func (s *Store) GetChat(_ context.Context, chatID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, repositories.ErrChatNotFound
	}
	return chat, nil
}

func (s *Store) ListChatsForUser(_ context.Context, userID string) ([]models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := []models.Chat{}
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].CreatedAt.After(chats[j].CreatedAt) })
	return chats, nil
}

// Messages

func (s *Store) CreateChatMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.seq++
	msg.Seq = s.seq
	msg.DeletedFor = nil
	if msg.Attachment != nil {
		att := *msg.Attachment
		msg.Attachment = &att
	}
	stored := msg
	s.messages[msg.ID] = &stored
	s.chatMessages[msg.ChatID] = append(s.chatMessages[msg.ChatID], msg.ID)
	return copyMessage(stored), nil
}

func (s *Store) GetMessage(_ context.Context, messageID string) (models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return copyMessage(*msg), nil
}

// visibleLocked returns the chat's messages in send order. Callers hold mu.
func (s *Store) visibleLocked(chatID, viewerID string) []models.Message {
	ids := s.chatMessages[chatID]
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msg := s.messages[id]
		if msg.HiddenFor(viewerID) {
			continue
		}
		out = append(out, copyMessage(*msg))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (s *Store) ListChatMessages(_ context.Context, chatID, viewerID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibleLocked(chatID, viewerID), nil
}

func (s *Store) LatestChatMessage(_ context.Context, chatID, viewerID string) (models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.visibleLocked(chatID, viewerID)
	if len(msgs) == 0 {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (s *Store) HideMessageForUser(_ context.Context, messageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok || msg.HiddenFor(userID) {
		return nil
	}
	msg.DeletedFor = append(msg.DeletedFor, userID)
	return nil
}

func (s *Store) MarkDeletedForEveryone(_ context.Context, messageID string, at time.Time) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	msg.DeletedForEveryone = true
	if msg.DeletedAt == nil {
		deletedAt := at
		msg.DeletedAt = &deletedAt
	}
	return copyMessage(*msg), nil
}

func (s *Store) CountUnread(_ context.Context, chatID, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range s.chatMessages[chatID] {
		msg := s.messages[id]
		if msg.SenderID != userID && msg.CreatedAt.After(since) && !msg.HiddenFor(userID) {
			count++
		}
	}
	return count, nil
}

// SearchChatMessages matches every term as a word prefix and ranks by the
// number of matching words.
func (s *Store) SearchChatMessages(_ context.Context, chatID, viewerID string, terms []string, limit int) ([]models.Message, error) {
	needles := normalizeTerms(terms)
	if len(needles) == 0 || limit <= 0 {
		return []models.Message{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		msg   models.Message
		score int
	}
	var hits []hit
	for _, msg := range s.visibleLocked(chatID, viewerID) {
		if msg.DeletedForEveryone {
			continue
		}
		if score := matchScore(msg.Content, needles); score > 0 {
			hits = append(hits, hit{msg: msg, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if !hits[i].msg.CreatedAt.Equal(hits[j].msg.CreatedAt) {
			return hits[i].msg.CreatedAt.After(hits[j].msg.CreatedAt)
		}
		return hits[i].msg.Seq > hits[j].msg.Seq
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]models.Message, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.msg)
	}
	return out, nil
}

// Typing

func (s *Store) UpsertTyping(_ context.Context, signal models.TypingSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing[pairKey{signal.ChatID, signal.UserID}] = signal
	return nil
}

func (s *Store) ListTyping(_ context.Context, chatID string) ([]models.TypingSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	signals := []models.TypingSignal{}
	for key, signal := range s.typing {
		if key.a == chatID {
			signals = append(signals, signal)
		}
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].UserID < signals[j].UserID })
	return signals, nil
}

func (s *Store) DeleteExpiredTyping(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, signal := range s.typing {
		if signal.ExpiresAt.Before(now) {
			delete(s.typing, key)
			removed++
		}
	}
	return removed, nil
}

// Pins

func (s *Store) GetPin(_ context.Context, userID, chatID string) (models.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pin, ok := s.pins[pairKey{userID, chatID}]
	if !ok {
		return models.Pin{}, repositories.ErrPinNotFound
	}
	return pin, nil
}

func (s *Store) ListPins(_ context.Context, userID string) ([]models.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinsLocked(userID), nil
}

func (s *Store) pinsLocked(userID string) []models.Pin {
	pins := []models.Pin{}
	for key, pin := range s.pins {
		if key.a == userID {
			pins = append(pins, pin)
		}
	}
	sort.Slice(pins, func(i, j int) bool {
		if !pins[i].PinnedAt.Equal(pins[j].PinnedAt) {
			return pins[i].PinnedAt.After(pins[j].PinnedAt)
		}
		return pins[i].ChatID < pins[j].ChatID
	})
	return pins
}

func (s *Store) CreatePinWithLimit(_ context.Context, pin models.Pin, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{pin.UserID, pin.ChatID}
	if _, ok := s.pins[key]; ok {
		return false, nil
	}
	if len(s.pinsLocked(pin.UserID)) >= limit {
		return false, repositories.ErrPinLimitReached
	}
	s.pins[key] = pin
	return true, nil
}

func (s *Store) DeletePin(_ context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pins, pairKey{userID, chatID})
	return nil
}

// Read receipts

func (s *Store) GetReadReceipt(_ context.Context, userID, chatID string) (models.ReadReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[pairKey{userID, chatID}]
	if !ok {
		return models.ReadReceipt{}, repositories.ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *Store) UpsertReadReceipt(_ context.Context, userID, chatID string, at time.Time) (models.ReadReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID, chatID}
	receipt, ok := s.receipts[key]
	if !ok || at.After(receipt.LastReadTime) {
		receipt = models.ReadReceipt{UserID: userID, ChatID: chatID, LastReadTime: at}
		s.receipts[key] = receipt
	}
	return receipt, nil
}

func copyMessage(msg models.Message) models.Message {
	out := msg
	if msg.DeletedFor != nil {
		out.DeletedFor = append([]string(nil), msg.DeletedFor...)
	}
	if msg.Attachment != nil {
		att := *msg.Attachment
		out.Attachment = &att
	}
	if msg.DeletedAt != nil {
		at := *msg.DeletedAt
		out.DeletedAt = &at
	}
	return out
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		out = append(out, words(term)...)
	}
	return out
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchScore is zero unless every needle prefixes at least one word.
func matchScore(content string, needles []string) int {
	tokens := words(content)
	score := 0
	for _, needle := range needles {
		hits := 0
		for _, token := range tokens {
			if strings.HasPrefix(token, needle) {
				hits++
			}
		}
		if hits == 0 {
			return 0
		}
		score += hits
	}
	return score
}
