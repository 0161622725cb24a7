package session

import (
	"crypto/rand"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	roomNamePrefix  = "GoGeo"
	roomShortMaxLen = 10

	// no ambiguous characters (0/O, 1/l/I)
	passwordChars     = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	defaultPasswordLn = 12
)

// GenerateRoomName produces a human-shareable, hard-to-guess room name.
// Format: GoGeo-{GROUPSHORT}-{base36 millis}-{random}
func GenerateRoomName(groupName string) string {
	short := strings.Join(strings.Fields(groupName), "")
	if runes := []rune(short); len(runes) > roomShortMaxLen {
		short = string(runes[:roomShortMaxLen])
	}
	short = strings.ToUpper(short)

	timestamp := strconv.FormatInt(NowFunc().UnixNano()/1e6, 36)
	random := uuid.New().String()[:8]

	return roomNamePrefix + "-" + short + "-" + timestamp + "-" + random
}

// GenerateRoomPassword produces a random room passphrase; 12 chars by default.
func GenerateRoomPassword(length ...int) string {
	n := defaultPasswordLn
	if len(length) > 0 && length[0] > 0 {
		n = length[0]
	}

	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = passwordChars[int(b)%len(passwordChars)]
	}
	return string(buf)
}

// JoinURL builds the full widget join URL for a room, with an optional password.
func JoinURL(baseURL, roomName string, password ...string) string {
	params := make(url.Values)
	params.Set("config.prejoinPageEnabled", "false")
	if len(password) > 0 && password[0] != "" {
		params.Set("config.startWithPassword", password[0])
	}
	return strings.TrimRight(baseURL, "/") + "/" + roomName + "#" + params.Encode()
}
