package registry

import (
	"errors"
	"testing"

	"github.com/npezzotti/polyglot-chat/internal/types"
	"github.com/stretchr/testify/assert"
)

// sequenceCodes returns a generator that hands out codes in order.
func sequenceCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func Test_randomCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := randomCode()
		assert.NoError(t, err, "expected no error generating code")
		assert.Len(t, code, CodeLength, "expected code of length %d", CodeLength)
		for _, ch := range code {
			assert.Containsf(t, CodeAlphabet, string(ch), "unexpected character %q in code %q", ch, code)
		}
	}
}

func TestCreateRoom(t *testing.T) {
	t.Run("new room is empty", func(t *testing.T) {
		r := New()
		code, err := r.CreateRoom()
		assert.NoError(t, err, "expected no error creating room")
		assert.Regexp(t, "^[A-Z]{4}$", code, "expected four uppercase letters")
		assert.True(t, r.RoomExists(code), "expected room to exist after creation")

		count, err := r.MemberCount(code)
		assert.NoError(t, err)
		assert.Equal(t, 0, count, "expected no members in new room")

		history, err := r.History(code)
		assert.NoError(t, err)
		assert.Empty(t, history, "expected empty history")

		members, err := r.Languages(code)
		assert.NoError(t, err)
		assert.Empty(t, members, "expected empty language mapping")
	})

	t.Run("retries until an unused code is found", func(t *testing.T) {
		r := New()
		r.generateCode = sequenceCodes("ABCD", "ABCD", "ABCD", "WXYZ")

		first, err := r.CreateRoom()
		assert.NoError(t, err)
		assert.Equal(t, "ABCD", first)

		second, err := r.CreateRoom()
		assert.NoError(t, err)
		assert.Equal(t, "WXYZ", second, "expected colliding codes to be skipped")
		assert.Equal(t, 2, r.Len())
	})

	t.Run("code space exhausted", func(t *testing.T) {
		r := New()
		r.capacity = 1
		r.generateCode = sequenceCodes("ABCD", "EFGH")

		_, err := r.CreateRoom()
		assert.NoError(t, err)

		_, err = r.CreateRoom()
		assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	})

	t.Run("generator error", func(t *testing.T) {
		r := New()
		r.generateCode = func() (string, error) { return "", errors.New("entropy unavailable") }

		_, err := r.CreateRoom()
		assert.EqualError(t, err, "entropy unavailable")
		assert.Equal(t, 0, r.Len(), "expected no room to be registered")
	})
}

func TestRecordJoin(t *testing.T) {
	r := New()
	r.generateCode = sequenceCodes("ABCD")
	code, err := r.CreateRoom()
	assert.NoError(t, err)

	assert.NoError(t, r.RecordJoin(code, "alice", "en"))
	assert.NoError(t, r.RecordJoin(code, "bob", "fr"))
	// rejoining overwrites the language but keeps the original position
	assert.NoError(t, r.RecordJoin(code, "alice", "de"))

	members, err := r.Languages(code)
	assert.NoError(t, err)
	assert.Equal(t, []types.Member{
		{Name: "alice", Language: "de"},
		{Name: "bob", Language: "fr"},
	}, members)

	count, err := r.MemberCount(code)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "expected RecordJoin to leave the member count alone")

	assert.ErrorIs(t, r.RecordJoin("ZZZZ", "carol", "en"), ErrRoomNotFound)
}

func TestMembers(t *testing.T) {
	r := New()
	r.generateCode = sequenceCodes("ABCD")
	code, err := r.CreateRoom()
	assert.NoError(t, err)

	assert.NoError(t, r.IncrementMembers(code))
	assert.NoError(t, r.IncrementMembers(code))

	deleted, err := r.DecrementMembers(code)
	assert.NoError(t, err)
	assert.False(t, deleted, "expected room to survive with one member left")
	assert.True(t, r.RoomExists(code))

	deleted, err = r.DecrementMembers(code)
	assert.NoError(t, err)
	assert.True(t, deleted, "expected room to be removed at zero members")
	assert.False(t, r.RoomExists(code))

	_, err = r.DecrementMembers(code)
	assert.ErrorIs(t, err, ErrRoomNotFound, "expected decrement on a removed room to fail")
	assert.ErrorIs(t, r.IncrementMembers(code), ErrRoomNotFound)
	_, err = r.History(code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDecrementMembers_NeverCreated(t *testing.T) {
	r := New()
	r.generateCode = sequenceCodes("ABCD")
	code, err := r.CreateRoom()
	assert.NoError(t, err)

	// a room nobody connected to is removed by the first departure
	deleted, err := r.DecrementMembers(code)
	assert.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, r.RoomExists(code))
}

func TestAppendMessage_History(t *testing.T) {
	r := New()
	r.generateCode = sequenceCodes("ABCD")
	code, err := r.CreateRoom()
	assert.NoError(t, err)

	msgs := []types.Message{
		{Name: "alice", Message: "hello"},
		{Name: "bob", Message: "bonjour"},
		{Name: "alice", Message: "how are you?"},
	}
	for _, m := range msgs {
		assert.NoError(t, r.AppendMessage(code, m))
	}

	history, err := r.History(code)
	assert.NoError(t, err)
	assert.Equal(t, msgs, history, "expected history in insertion order")

	history[0].Message = "mutated"
	again, _ := r.History(code)
	assert.Equal(t, "hello", again[0].Message, "expected History to return a copy")

	assert.ErrorIs(t, r.AppendMessage("ZZZZ", msgs[0]), ErrRoomNotFound)
}

func TestOtherMember(t *testing.T) {
	r := New()
	r.generateCode = sequenceCodes("ABCD")
	code, err := r.CreateRoom()
	assert.NoError(t, err)

	assert.NoError(t, r.RecordJoin(code, "alice", "en"))

	_, ok := r.OtherMember(code, "alice")
	assert.False(t, ok, "expected no other member in a room of one")

	assert.NoError(t, r.RecordJoin(code, "bob", "fr"))
	assert.NoError(t, r.RecordJoin(code, "carol", "es"))

	other, ok := r.OtherMember(code, "alice")
	assert.True(t, ok)
	assert.Equal(t, "bob", other)

	other, ok = r.OtherMember(code, "bob")
	assert.True(t, ok)
	assert.Equal(t, "alice", other)

	_, ok = r.OtherMember("ZZZZ", "alice")
	assert.False(t, ok, "expected no member for a missing room")
}
