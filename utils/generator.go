package utils

import (
	"math/rand"
	"strings"
)

const meetingCodeLength = 12
const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateMeetingCode returns a random room code split into groups of four.
func GenerateMeetingCode() string {
	b := make([]byte, meetingCodeLength)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	code := string(b)
	return code[:4] + "-" + code[4:8] + "-" + code[8:]
}

// MeetingLink builds a video room URL under baseURL.
func MeetingLink(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/mentor-" + GenerateMeetingCode()
}
