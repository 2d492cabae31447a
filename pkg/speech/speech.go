// Package speech provides the speech-to-text and text-to-speech
// collaborators the voice assistant depends on. Both cloud services are
// opaque request/response HTTP endpoints; this package does not interpret
// audio beyond carrying it.
package speech

import "context"

// Recognizer turns recorded audio into text.
type Recognizer interface {
	// Recognize submits an utterance and returns the recognized text.
	Recognize(ctx context.Context, audio []byte, format string) (string, error)
}

// SynthesisOptions are the voice parameters for text-to-speech.
type SynthesisOptions struct {
	// Voice selects the speaker persona.
	Voice int

	// Speed is the speaking rate, 0-15.
	Speed int

	// Volume is the loudness, 0-15.
	Volume int

	// Pitch is the tone, 0-15.
	Pitch int
}

// Synthesizer turns assistant text into playable audio.
type Synthesizer interface {
	// Synthesize returns encoded audio for the given text.
	Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error)
}

// NopRecognizer always reports that nothing was heard.
type NopRecognizer struct{}

// Recognize returns an empty transcription.
func (NopRecognizer) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	return "", nil
}

// NopSynthesizer produces no audio. Used in tests and text-only mode.
type NopSynthesizer struct{}

// Synthesize returns no audio.
func (NopSynthesizer) Synthesize(_ context.Context, _ string, _ SynthesisOptions) ([]byte, error) {
	return nil, nil
}
