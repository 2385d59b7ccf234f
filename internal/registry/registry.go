package registry

import (
	"crypto/rand"
	"errors"
	"math/big"
	"slices"
	"sync"

	"github.com/npezzotti/polyglot-chat/internal/types"
)

const (
	CodeLength   = 4
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

type room struct {
	members  int
	messages []types.Message
	// names keeps the join order of languages
	names     []string
	languages map[string]string
}

// Registry is the process-wide table of active rooms keyed by room code.
// All methods are safe for concurrent use.
type Registry struct {
	mu           sync.Mutex
	rooms        map[string]*room
	capacity     int
	generateCode func() (string, error)
}

func New() *Registry {
	return &Registry{
		rooms:        make(map[string]*room),
		capacity:     codeSpace(),
		generateCode: randomCode,
	}
}

func codeSpace() int {
	n := 1
	for i := 0; i < CodeLength; i++ {
		n *= len(CodeAlphabet)
	}
	return n
}

// randomCode returns CodeLength letters picked with crypto/rand.
func randomCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// CreateRoom mints a code not currently in use and registers an empty room
// under it.
func (r *Registry) CreateRoom() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rooms) >= r.capacity {
		return "", ErrCodeSpaceExhausted
	}

	for {
		code, err := r.generateCode()
		if err != nil {
			return "", err
		}

		if _, ok := r.rooms[code]; ok {
			continue
		}

		r.rooms[code] = &room{
			languages: make(map[string]string),
		}
		return code, nil
	}
}

func (r *Registry) RoomExists(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.rooms[code]
	return ok
}

// Len returns the number of active rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// RecordJoin sets the preferred language for name in the room. The member
// count is left alone; it follows live connections.
func (r *Registry) RecordJoin(code, name, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	if _, seen := rm.languages[name]; !seen {
		rm.names = append(rm.names, name)
	}
	rm.languages[name] = language
	return nil
}

func (r *Registry) IncrementMembers(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	rm.members++
	return nil
}

// DecrementMembers lowers the member count and removes the room once it
// drops to zero. deleted reports whether the room was removed.
func (r *Registry) DecrementMembers(code string) (deleted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return false, ErrRoomNotFound
	}

	rm.members--
	if rm.members <= 0 {
		delete(r.rooms, code)
		return true, nil
	}

	return false, nil
}

func (r *Registry) MemberCount(code string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return 0, ErrRoomNotFound
	}

	return rm.members, nil
}

func (r *Registry) AppendMessage(code string, msg types.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	rm.messages = append(rm.messages, msg)
	return nil
}

// History returns a copy of the room's messages in the order they were sent.
func (r *Registry) History(code string) ([]types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return slices.Clone(rm.messages), nil
}

// Languages returns every name that has joined the room with its language,
// in first-join order.
func (r *Registry) Languages(code string) ([]types.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	members := make([]types.Member, 0, len(rm.names))
	for _, name := range rm.names {
		members = append(members, types.Member{
			Name:     name,
			Language: rm.languages[name],
		})
	}

	return members, nil
}

// OtherMember returns the first name in the room's language mapping that
// is not name.
func (r *Registry) OtherMember(code, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return "", false
	}

	for _, n := range rm.names {
		if n != name {
			return n, true
		}
	}

	return "", false
}
