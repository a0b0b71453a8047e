package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"simple", "alice", true},
		{"chinese", "小明", true},
		{"sixteen runes", "一二三四五六七八九十一二三四五六", true},
		{"seventeen runes", "一二三四五六七八九十一二三四五六七", false},
		{"empty", "", false},
		{"angle bracket", "<script>", false},
		{"newline", "a\nb", false},
		{"tab", "a\tb", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, validName(tc.in))
		})
	}
}

func TestNormalizeAvatar(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://q1.qlogo.cn/g?b=qq&nk=12345678&s=640", normalizeAvatar("12345678"))
	assert.Equal(t, "https://q1.qlogo.cn/g?b=qq&nk=10001&s=640", normalizeAvatar("10001"))
	assert.Empty(t, normalizeAvatar("1234"))          // too short
	assert.Empty(t, normalizeAvatar("1234567890123")) // too long
	assert.Empty(t, normalizeAvatar("not-a-number"))
	assert.Empty(t, normalizeAvatar("https://evil.example/x.png"))
	assert.Empty(t, normalizeAvatar(""))
}

func TestIntField(t *testing.T) {
	t.Parallel()
	n, err := intField(json.RawMessage(`60`))
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	_, err = intField(json.RawMessage(`60.5`))
	assert.ErrorIs(t, err, errInvalidPayload)
	_, err = intField(json.RawMessage(`"60"`))
	assert.ErrorIs(t, err, errInvalidPayload)
	_, err = intField(json.RawMessage(``))
	assert.ErrorIs(t, err, errInvalidPayload)
}

func TestJoinPayloadValidate(t *testing.T) {
	t.Parallel()
	p := joinPayload{RoomCode: " abc123 ", Name: " alice ", Avatar: "12345678", PlayerKey: " k1 "}
	require.NoError(t, p.validate())
	assert.Equal(t, "abc123", p.RoomCode)
	assert.Equal(t, "alice", p.Name)
	assert.Equal(t, "k1", p.PlayerKey)
	assert.Equal(t, "https://q1.qlogo.cn/g?b=qq&nk=12345678&s=640", p.Avatar)

	bad := joinPayload{RoomCode: "abc", Name: "<nope>"}
	assert.ErrorIs(t, bad.validate(), errInvalidPayload)
	bad = joinPayload{RoomCode: "", Name: "alice"}
	assert.ErrorIs(t, bad.validate(), errInvalidPayload)
}

func TestTextPayloadValidate(t *testing.T) {
	t.Parallel()
	p := textPayload{RoomCode: "abc", Text: "hello"}
	assert.NoError(t, p.validate())

	p = textPayload{RoomCode: "abc", Text: "   "}
	assert.ErrorIs(t, p.validate(), errInvalidPayload)
	p = textPayload{RoomCode: "", Text: "hello"}
	assert.ErrorIs(t, p.validate(), errInvalidPayload)
}

func TestStartPayloadCleanWords(t *testing.T) {
	t.Parallel()
	p := startPayload{CustomWords: []string{" 苹果 ", "", "  ", "香蕉"}}
	assert.Equal(t, []string{"苹果", "香蕉"}, p.cleanWords())

	empty := startPayload{}
	assert.Empty(t, empty.cleanWords())
}

func TestEnvelopeDecode(t *testing.T) {
	t.Parallel()
	var env Envelope
	err := json.Unmarshal([]byte(`{"event":"room:join","payload":{"roomCode":"abc"}}`), &env)
	require.NoError(t, err)
	assert.Equal(t, "room:join", env.Event)

	var p roomOnlyPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "abc", p.RoomCode)
}
