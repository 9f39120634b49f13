package speech

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/harunnryd/uplink/pkg/errorsx"
)

// Wire format. Text messages carry CRLF-separated headers, a blank line,
// and a UTF-8 body. Binary audio messages carry a 2-byte big-endian
// header-section length, the header section, and the raw audio bytes.
// An audio message with an empty body marks end of stream.

const (
	pathAudio        = "audio"
	pathSpeechConfig = "speech.config"

	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/x-wav"
)

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func messageHeaders(path, requestID, contentType string) string {
	return fmt.Sprintf("Path: %s\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: %s",
		path, requestID, timestamp(), contentType)
}

func textMessage(path, requestID, contentType string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(messageHeaders(path, requestID, contentType))
	b.WriteString("\r\n\r\n")
	b.Write(body)
	return b.Bytes()
}

func binaryAudioMessage(requestID string, audio []byte) []byte {
	headers := messageHeaders(pathAudio, requestID, contentTypeWAV)
	msg := make([]byte, 2+len(headers)+len(audio))
	binary.BigEndian.PutUint16(msg[:2], uint16(len(headers)))
	copy(msg[2:], headers)
	copy(msg[2+len(headers):], audio)
	return msg
}

// parseTextMessage extracts the Path header and body of a service event.
func parseTextMessage(p []byte) (path string, body []byte, err error) {
	idx := bytes.Index(p, []byte("\r\n\r\n"))
	if idx < 0 {
		return "", nil, errorsx.New(errorsx.ReasonProtocol, "malformed event: missing header terminator")
	}
	for _, line := range strings.Split(string(p[:idx]), "\r\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "path") {
			path = strings.TrimSpace(value)
		}
	}
	if path == "" {
		return "", nil, errorsx.New(errorsx.ReasonProtocol, "malformed event: missing Path header")
	}
	return path, p[idx+4:], nil
}

// parseBinaryMessage splits a binary wire message into its header
// section and payload.
func parseBinaryMessage(p []byte) (headers string, payload []byte, err error) {
	if len(p) < 2 {
		return "", nil, errorsx.New(errorsx.ReasonProtocol, "malformed binary message: truncated length prefix")
	}
	n := int(binary.BigEndian.Uint16(p[:2]))
	if len(p) < 2+n {
		return "", nil, errorsx.New(errorsx.ReasonProtocol, "malformed binary message: truncated header section")
	}
	return string(p[2 : 2+n]), p[2+n:], nil
}

type speechConfigSystem struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Lang    string `json:"lang"`
}

type speechConfigOS struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
}

type speechConfigContext struct {
	System speechConfigSystem `json:"system"`
	OS     speechConfigOS     `json:"os"`
}

type speechConfigEnvelope struct {
	Context speechConfigContext `json:"context"`
}

func speechConfigPayload() []byte {
	payload := speechConfigEnvelope{
		Context: speechConfigContext{
			System: speechConfigSystem{
				Name:    "uplink",
				Version: "0.1.0",
				Lang:    "go",
			},
			OS: speechConfigOS{
				Platform: runtime.GOOS,
				Name:     runtime.GOOS,
			},
		},
	}
	b, _ := json.Marshal(payload)
	return b
}
