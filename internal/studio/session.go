// Package studio holds the interactive session state machine: one excerpt,
// one keyframe, iterative edits, then animation. All media operations go
// through the injected MediaClient; key selection goes through the injected
// KeyGate.
package studio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cinematica/internal/client"
	"cinematica/internal/styles"
)

// ErrBusy is returned when a top-level operation is requested while another
// is still in flight. State is left untouched.
var ErrBusy = errors.New("studio: operation already in progress")

const expiredKeyMessage = "API Key session expired. Please re-select your key."

// DefaultTickInterval paces the rotating loading messages during animation.
const DefaultTickInterval = 5 * time.Second

// MediaClient is the slice of the gateway client a session consumes.
type MediaClient interface {
	DraftKeyframe(ctx context.Context, excerpt, styleSuffix string) (string, error)
	EditImage(ctx context.Context, imageURI, instruction string) (string, error)
	AnimateImage(ctx context.Context, imageURI, prompt string, progress func(string)) (string, error)
}

// KeyGate abstracts the host's key-selection capability.
type KeyGate interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// Options configures a Session.
type Options struct {
	Client       MediaClient
	Keys         KeyGate
	TickInterval time.Duration
	Logger       *zerolog.Logger
}

// Session is safe for concurrent use; only one top-level operation runs at a
// time and concurrent callers get ErrBusy.
type Session struct {
	client       MediaClient
	keys         KeyGate
	tickInterval time.Duration
	logger       zerolog.Logger

	mu       sync.Mutex
	busy     bool
	state    State
	keyState KeyState
	media    MediaState
	status   string
	errMsg   string
}

// NewSession validates options and constructs an idle session.
func NewSession(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, errors.New("studio: media client is required")
	}
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Session{
		client:       opts.Client,
		keys:         opts.Keys,
		tickInterval: tickInterval,
		logger:       logger,
		state:        StateIdle,
		keyState:     KeyUnknown,
	}, nil
}

// Draft generates a keyframe from the excerpt in the given style. An empty
// excerpt or nil style is a silent no-op. On success the media state is
// replaced wholesale and any previous video is dropped.
func (s *Session) Draft(ctx context.Context, excerpt string, style *styles.CinematicStyle) error {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" || style == nil {
		return nil
	}
	if err := s.begin(StateDrafting, "Drafting your keyframe..."); err != nil {
		return err
	}

	imageURL, err := s.client.DraftKeyframe(ctx, excerpt, style.PromptSuffix)
	if err != nil {
		s.logger.Error().Err(err).Msg("keyframe draft failed")
		// With nothing on screen yet there is no state worth keeping.
		s.mu.Lock()
		hasImage := s.media.ImageURL != ""
		s.mu.Unlock()
		if hasImage {
			s.fail(StateCompleted, err.Error())
		} else {
			s.fail(StateError, err.Error())
		}
		return err
	}

	s.mu.Lock()
	s.media = MediaState{
		ImageURL:      imageURL,
		Excerpt:       excerpt,
		SelectedStyle: style,
		LastPrompt:    excerpt,
	}
	s.settle(StateCompleted)
	s.mu.Unlock()
	return nil
}

// Edit re-renders the current keyframe under a free-text instruction. A
// missing keyframe or blank instruction is a silent no-op. Failure keeps the
// existing image and returns to completed. Only the image is replaced; the
// recorded prompt still describes the scene, so a later Animate uses the
// draft excerpt, not the edit instruction.
func (s *Session) Edit(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)

	s.mu.Lock()
	imageURL := s.media.ImageURL
	s.mu.Unlock()
	if imageURL == "" || instruction == "" {
		return nil
	}

	if err := s.begin(StateEditing, "Applying your edit..."); err != nil {
		return err
	}

	edited, err := s.client.EditImage(ctx, imageURL, instruction)
	if err != nil {
		s.logger.Error().Err(err).Msg("keyframe edit failed")
		s.fail(StateCompleted, err.Error())
		return err
	}

	s.mu.Lock()
	s.media.ImageURL = edited
	s.settle(StateCompleted)
	s.mu.Unlock()
	return nil
}

// Animate turns the current keyframe into a video clip. The key gate runs
// first; animation only starts once the host has confirmed a key. While the
// render is in flight a ticker rotates the loading messages. A
// credential-expired failure resets the key state so the next attempt
// re-runs the gate.
func (s *Session) Animate(ctx context.Context) error {
	s.mu.Lock()
	imageURL := s.media.ImageURL
	prompt := s.media.LastPrompt
	s.mu.Unlock()
	if imageURL == "" {
		return nil
	}

	if err := s.ensureKey(ctx); err != nil {
		return err
	}

	if err := s.begin(StateAnimating, styles.LoadingMessages[0]); err != nil {
		return err
	}

	done := make(chan struct{})
	go s.rotateStatus(done)

	videoURL, err := s.client.AnimateImage(ctx, imageURL, prompt, nil)
	close(done)
	if err != nil {
		s.logger.Error().Err(err).Msg("animation failed")
		if client.KindOf(err) == client.KindCredentialExpired {
			s.mu.Lock()
			s.keyState = KeyUnknown
			s.mu.Unlock()
			s.fail(StateCompleted, expiredKeyMessage)
			return err
		}
		s.fail(StateCompleted, err.Error())
		return err
	}

	s.mu.Lock()
	s.media.VideoURL = videoURL
	s.settle(StateCompleted)
	s.mu.Unlock()
	return nil
}

// UploadImage replaces the whole media state with a user-supplied keyframe.
func (s *Session) UploadImage(dataURI string) error {
	if dataURI == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.media = MediaState{
		ImageURL:   dataURI,
		Excerpt:    "Uploaded image",
		LastPrompt: "Uploaded image",
	}
	s.settle(StateCompleted)
	return nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// KeyState returns the current credential phase.
func (s *Session) KeyState() KeyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyState
}

// Media returns a copy of the current media state.
func (s *Session) Media() MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}

// StatusMessage returns the current progress text, if any.
func (s *Session) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ErrorMessage returns the last failure's user-facing text, cleared on the
// next successful operation.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Session) ensureKey(ctx context.Context) error {
	s.mu.Lock()
	confirmed := s.keyState == KeyConfirmed
	s.mu.Unlock()
	if confirmed || s.keys == nil {
		return nil
	}

	s.setKeyState(KeySelecting)
	selected, err := s.keys.HasSelectedKey(ctx)
	if err != nil {
		s.setKeyState(KeyUnknown)
		return err
	}
	if !selected {
		if err := s.keys.OpenSelectKey(ctx); err != nil {
			s.setKeyState(KeyUnknown)
			return err
		}
	}
	s.setKeyState(KeyConfirmed)
	return nil
}

func (s *Session) setKeyState(ks KeyState) {
	s.mu.Lock()
	s.keyState = ks
	s.mu.Unlock()
}

// begin acquires the single-flight slot and enters the working state.
func (s *Session) begin(working State, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.state = working
	s.status = status
	s.errMsg = ""
	return nil
}

// settle leaves the working state. Callers must hold s.mu.
func (s *Session) settle(next State) {
	s.busy = false
	s.state = next
	s.status = ""
	s.errMsg = ""
}

func (s *Session) fail(next State, message string) {
	s.mu.Lock()
	s.busy = false
	s.state = next
	s.status = ""
	s.errMsg = message
	s.mu.Unlock()
}

func (s *Session) rotateStatus(done <-chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == StateAnimating {
				s.status = styles.LoadingMessages[i%len(styles.LoadingMessages)]
			}
			s.mu.Unlock()
		}
	}
}
