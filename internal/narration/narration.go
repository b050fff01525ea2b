// Package narration turns a report transcript into spoken audio: translate
// to the target locale, synthesise speech, then persist the MP3 in an
// AudioStore and hand back its reference.
package narration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/newspulse/internal/config"
)

// DefaultLocale is the narration language.
const DefaultLocale = "hi"

var (
	// ErrEmptyTranscript is returned when there is nothing to narrate.
	ErrEmptyTranscript = errors.New("narration: empty transcript")

	// ErrAudioNotFound is returned by AudioStore.Open for unknown references.
	ErrAudioNotFound = errors.New("narration: audio not found")

	// ErrInvalidReference is returned for references a store does not own.
	ErrInvalidReference = errors.New("narration: invalid audio reference")
)

// Translator converts text into the target locale.
type Translator interface {
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

// Speaker synthesises MP3 audio for text spoken in locale.
type Speaker interface {
	Speak(ctx context.Context, text, locale string) ([]byte, error)
}

// AudioStore persists narration audio.
type AudioStore interface {
	// Put stores data under name and returns an opaque reference.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Open returns the audio behind ref. Callers close the reader.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Service chains translation, speech and storage. It satisfies the
// comparative engine's Narrator.
type Service struct {
	translator Translator
	speaker    Speaker
	store      AudioStore
	logger     *slog.Logger
}

// NewService creates a narration service. A nil translator narrates the
// transcript untranslated.
func NewService(t Translator, s Speaker, store AudioStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{translator: t, speaker: s, store: store, logger: logger}
}

// Synthesize narrates transcript in locale and returns the audio reference.
func (s *Service) Synthesize(ctx context.Context, transcript, locale string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", ErrEmptyTranscript
	}
	if locale == "" {
		locale = DefaultLocale
	}
	start := time.Now()

	text := transcript
	if s.translator != nil {
		translated, err := s.translator.Translate(ctx, transcript, locale)
		if err != nil {
			return "", fmt.Errorf("narration: translate: %w", err)
		}
		text = translated
	}

	audio, err := s.speaker.Speak(ctx, text, locale)
	if err != nil {
		return "", fmt.Errorf("narration: speak: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("narration: speak: no audio returned")
	}

	ref, err := s.store.Put(ctx, audioName(), audio)
	if err != nil {
		return "", fmt.Errorf("narration: store: %w", err)
	}

	s.logger.Info("narration ready", "locale", locale, "bytes", len(audio),
		"ref", ref, "took", time.Since(start).Round(time.Millisecond))
	return ref, nil
}

// Open returns the stored audio behind ref.
func (s *Service) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.store.Open(ctx, ref)
}

// NewFromConfig wires the Google translate/TTS clients and the configured
// audio store. It returns (nil, nil) when narration is disabled.
func NewFromConfig(ctx context.Context, cfg config.NarrationConfig, logger *slog.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	timeout := config.Seconds(cfg.TimeoutSec)

	var store AudioStore
	switch strings.ToLower(cfg.Store) {
	case "", "file":
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		store = fs
	case "s3":
		s3s, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		store = s3s
	default:
		return nil, fmt.Errorf("narration: unknown store %q", cfg.Store)
	}

	return NewService(
		NewGoogleTranslator(WithTranslateURL(cfg.TranslateURL), WithTranslateTimeout(timeout)),
		NewGoogleTTS(WithTTSURL(cfg.TTSURL), WithTTSTimeout(timeout)),
		store,
		logger,
	), nil
}

func audioName() string {
	return "narration-" + uuid.NewString() + ".mp3"
}
