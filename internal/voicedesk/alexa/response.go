package alexa

// envelopeVersion is the reply protocol version expected by the platform.
const envelopeVersion = "1.0"

// apologyText is the fixed utterance for terminal failures.
const apologyText = "An unexpected error occurred. Please try again later."

// ReplyEnvelope is the outbound reply to the voice platform.
type ReplyEnvelope struct {
	Version  string `json:"version"`
	Response Reply  `json:"response"`
}

// Reply carries the spoken text, the session-continue flag, and any
// presentation directives.
type Reply struct {
	ShouldEndSession bool          `json:"shouldEndSession"`
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	Directives       []Directive   `json:"directives"`
}

// OutputSpeech is plain-text speech.
type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reprompt wraps the reprompt speech.
type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// Directive is a platform presentation instruction attached to the reply
// independent of spoken text.
type Directive struct {
	Type         string     `json:"type"`
	PlayBehavior string     `json:"playBehavior,omitempty"`
	AudioItem    *AudioItem `json:"audioItem,omitempty"`
}

// AudioItem wraps an audio stream to play.
type AudioItem struct {
	Stream Stream `json:"stream"`
}

// Stream locates the audio to play.
type Stream struct {
	Token                string `json:"token"`
	URL                  string `json:"url"`
	OffsetInMilliseconds int    `json:"offsetInMilliseconds"`
}

// plainText builds a plain-text speech fragment.
func plainText(text string) OutputSpeech {
	return OutputSpeech{Type: "PlainText", Text: text}
}

// NewReply builds the standard reply: the conversation always continues from
// this path, the reprompt is empty, and directives are attached verbatim
// (possibly an empty set).
func NewReply(text string, directives []Directive) *ReplyEnvelope {
	speech := plainText(text)
	if directives == nil {
		directives = []Directive{}
	}
	return &ReplyEnvelope{
		Version: envelopeVersion,
		Response: Reply{
			ShouldEndSession: false,
			OutputSpeech:     &speech,
			Reprompt:         &Reprompt{OutputSpeech: plainText("")},
			Directives:       directives,
		},
	}
}

// ErrorReply builds the terminal-failure reply: a fixed apology (or the given
// reason) with the session ended and no directives.
func ErrorReply(reason string) *ReplyEnvelope {
	if reason == "" {
		reason = apologyText
	}
	speech := plainText(reason)
	return &ReplyEnvelope{
		Version: envelopeVersion,
		Response: Reply{
			ShouldEndSession: true,
			OutputSpeech:     &speech,
			Directives:       []Directive{},
		},
	}
}

// AudioDirective builds the fixed audio-playback directive attached by the
// resource-age action.
func AudioDirective(url, token string) Directive {
	return Directive{
		Type:         "AudioPlayer.Play",
		PlayBehavior: "REPLACE_ALL",
		AudioItem: &AudioItem{
			Stream: Stream{
				Token:                token,
				URL:                  url,
				OffsetInMilliseconds: 0,
			},
		},
	}
}
