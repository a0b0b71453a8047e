package realtime

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/htxzdfunny/drawful-web/internal/game"
)

// Envelope is the wire frame for every client event: a name plus a
// typed payload decoded per event. Unknown shapes are rejected at this
// boundary before anything reaches the game core.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

var errInvalidPayload = errors.New("invalid_payload")

type joinPayload struct {
	RoomCode  string `json:"roomCode"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	PlayerKey string `json:"playerKey"`
}

func (p *joinPayload) validate() error {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
	p.Name = strings.TrimSpace(p.Name)
	p.Avatar = strings.TrimSpace(p.Avatar)
	p.PlayerKey = strings.TrimSpace(p.PlayerKey)
	if p.RoomCode == "" || !validName(p.Name) {
		return errInvalidPayload
	}
	p.Avatar = normalizeAvatar(p.Avatar)
	return nil
}

type roomOnlyPayload struct {
	RoomCode string `json:"roomCode"`
}

func (p *roomOnlyPayload) validate() error {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
	if p.RoomCode == "" {
		return errInvalidPayload
	}
	return nil
}

type setDurationPayload struct {
	RoomCode         string          `json:"roomCode"`
	RoundDurationSec json.RawMessage `json:"roundDurationSec"`
}

type setRoundsPayload struct {
	RoomCode       string          `json:"roomCode"`
	RoundsPerMatch json.RawMessage `json:"roundsPerMatch"`
}

// intField decodes a JSON number that must be an integer; "60.5" or
// "abc" are rejected rather than truncated.
func intField(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errInvalidPayload
	}
	n := int(f)
	if float64(n) != f {
		return 0, errInvalidPayload
	}
	return n, nil
}

type transferOwnerPayload struct {
	RoomCode   string `json:"roomCode"`
	NewOwnerID string `json:"newOwnerId"`
}

type textPayload struct {
	RoomCode string `json:"roomCode"`
	Text     string `json:"text"`
}

func (p *textPayload) validate() error {
	p.RoomCode = strings.TrimSpace(p.RoomCode)
	if p.RoomCode == "" || strings.TrimSpace(p.Text) == "" {
		return errInvalidPayload
	}
	return nil
}

type startPayload struct {
	RoomCode    string   `json:"roomCode"`
	CustomWords []string `json:"customWords"`
}

func (p *startPayload) cleanWords() []string {
	words := make([]string, 0, len(p.CustomWords))
	for _, w := range p.CustomWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

type chooseWordPayload struct {
	RoomCode string `json:"roomCode"`
	Word     string `json:"word"`
}

type drawChangePayload struct {
	RoomCode string             `json:"roomCode"`
	Elements []game.DrawElement `json:"elements"`
}

// validName rejects empty, overlong, angle-bracketed or control-character
// display names.
func validName(name string) bool {
	if name == "" || len([]rune(name)) > 16 {
		return false
	}
	if strings.ContainsAny(name, "<>") {
		return false
	}
	for _, r := range name {
		if r < 32 {
			return false
		}
	}
	return true
}

var qqNumRe = regexp.MustCompile(`^\d{5,12}$`)

// normalizeAvatar maps a bare QQ number to its public avatar URL and
// drops anything else.
func normalizeAvatar(raw string) string {
	if qqNumRe.MatchString(raw) {
		return "https://q1.qlogo.cn/g?b=qq&nk=" + raw + "&s=640"
	}
	return ""
}
