package speech

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/harunnryd/uplink/pkg/errorsx"
)

// RecognitionMode selects the streaming recognition style.
//
//	ModeInteractive  - short commands and queries, fast turn end
//	ModeConversation - multi-party conversational speech
//	ModeDictation    - long-form dictation with punctuation events
type RecognitionMode int

const (
	ModeInteractive RecognitionMode = iota
	ModeConversation
	ModeDictation
)

func (m RecognitionMode) String() string {
	switch m {
	case ModeConversation:
		return "conversation"
	case ModeDictation:
		return "dictation"
	default:
		return "interactive"
	}
}

// EndpointType selects the service category the region default resolves to.
//
//	EndpointSpeech      - speech recognition
//	EndpointTranslation - speech translation
//	EndpointIntent      - recognition with intent inference
type EndpointType int

const (
	EndpointSpeech EndpointType = iota
	EndpointTranslation
	EndpointIntent
)

func (e EndpointType) String() string {
	switch e {
	case EndpointTranslation:
		return "translation"
	case EndpointIntent:
		return "intent"
	default:
		return "speech"
	}
}

// AuthenticationKind is the credential style sent with the handshake.
type AuthenticationKind int

const (
	AuthNone AuthenticationKind = iota
	// AuthSubscriptionKey sends a shared secret in the
	// Ocp-Apim-Subscription-Key header.
	AuthSubscriptionKey
	// AuthAuthorizationToken sends a bearer token in the
	// Authorization header.
	AuthAuthorizationToken
)

type Authentication struct {
	Kind       AuthenticationKind
	Credential string
}

// SessionConfig is the immutable configuration a Connection is built
// from. An explicit EndpointURL overrides the region-derived default.
// The ConnectionID correlates the session on the wire and is never
// reused across connections.
type SessionConfig struct {
	Mode         RecognitionMode
	Endpoint     EndpointType
	Region       string
	EndpointURL  string
	Auth         Authentication
	ConnectionID string
}

func (c SessionConfig) validate() error {
	if c.Auth.Kind == AuthNone || strings.TrimSpace(c.Auth.Credential) == "" {
		return errorsx.New(errorsx.ReasonConfiguration, "authentication is required")
	}
	if strings.TrimSpace(c.EndpointURL) == "" && strings.TrimSpace(c.Region) == "" {
		return errorsx.New(errorsx.ReasonConfiguration, "region or endpoint url is required")
	}
	if strings.TrimSpace(c.ConnectionID) == "" {
		return errorsx.New(errorsx.ReasonConfiguration, "connection id is required")
	}
	return nil
}

func (c SessionConfig) url() string {
	if c.EndpointURL != "" {
		return c.EndpointURL
	}
	switch c.Endpoint {
	case EndpointTranslation:
		return fmt.Sprintf("wss://%s.s2s.speech.microsoft.com/speech/translation/cognitiveservices/v1", c.Region)
	case EndpointIntent:
		return fmt.Sprintf("wss://%s.sr.speech.microsoft.com/speech/recognition/interactive/cognitiveservices/v1", c.Region)
	default:
		return fmt.Sprintf("wss://%s.stt.speech.microsoft.com/speech/recognition/%s/cognitiveservices/v1", c.Region, c.Mode.String())
	}
}

func (c SessionConfig) handshakeHeader() http.Header {
	h := http.Header{}
	switch c.Auth.Kind {
	case AuthSubscriptionKey:
		h.Set("Ocp-Apim-Subscription-Key", c.Auth.Credential)
	case AuthAuthorizationToken:
		h.Set("Authorization", "Bearer "+c.Auth.Credential)
	}
	h.Set("X-ConnectionId", c.ConnectionID)
	return h
}
