package studio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinematica/internal/client"
	"cinematica/internal/styles"
)

type stubClient struct {
	draftResult   string
	draftErr      error
	editResult    string
	editErr       error
	animateResult string
	animateErr    error

	draftExcerpts []string
	draftSuffixes []string
	editImages    []string
	editPrompts   []string
	animateImages []string
	animatePrompt string

	release chan struct{}
}

func (s *stubClient) DraftKeyframe(ctx context.Context, excerpt, styleSuffix string) (string, error) {
	s.draftExcerpts = append(s.draftExcerpts, excerpt)
	s.draftSuffixes = append(s.draftSuffixes, styleSuffix)
	if s.release != nil {
		<-s.release
	}
	return s.draftResult, s.draftErr
}

func (s *stubClient) EditImage(ctx context.Context, imageURI, instruction string) (string, error) {
	s.editImages = append(s.editImages, imageURI)
	s.editPrompts = append(s.editPrompts, instruction)
	return s.editResult, s.editErr
}

func (s *stubClient) AnimateImage(ctx context.Context, imageURI, prompt string, progress func(string)) (string, error) {
	s.animateImages = append(s.animateImages, imageURI)
	s.animatePrompt = prompt
	if s.release != nil {
		<-s.release
	}
	return s.animateResult, s.animateErr
}

type stubGate struct {
	selected  bool
	hasErr    error
	openErr   error
	hasCalls  int
	openCalls int
}

func (g *stubGate) HasSelectedKey(ctx context.Context) (bool, error) {
	g.hasCalls++
	return g.selected, g.hasErr
}

func (g *stubGate) OpenSelectKey(ctx context.Context) error {
	g.openCalls++
	return g.openErr
}

func newTestSession(t *testing.T, mc MediaClient, gate KeyGate) *Session {
	t.Helper()
	s, err := NewSession(Options{Client: mc, Keys: gate, TickInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	return s
}

func gothicHorror(t *testing.T) *styles.CinematicStyle {
	t.Helper()
	style, ok := styles.ByID("horror")
	require.True(t, ok)
	return style
}

func TestNewSessionRequiresClient(t *testing.T) {
	_, err := NewSession(Options{})
	require.Error(t, err)
}

func TestDraftReplacesMediaAndClearsVideo(t *testing.T) {
	mc := &stubClient{draftResult: "data:image/png;base64,bmV3"}
	s := newTestSession(t, mc, nil)
	require.NoError(t, s.UploadImage("data:image/png;base64,b2xk"))

	// Simulate a clip left over from an earlier run.
	s.mu.Lock()
	s.media.VideoURL = "data:video/mp4;base64,b2xk"
	s.mu.Unlock()

	style := gothicHorror(t)
	require.NoError(t, s.Draft(context.Background(), "A lantern flickers in the fog", style))

	media := s.Media()
	assert.Equal(t, "data:image/png;base64,bmV3", media.ImageURL)
	assert.Empty(t, media.VideoURL)
	assert.Equal(t, "A lantern flickers in the fog", media.Excerpt)
	assert.Equal(t, "A lantern flickers in the fog", media.LastPrompt)
	assert.Equal(t, style.ID, media.SelectedStyle.ID)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, []string{style.PromptSuffix}, mc.draftSuffixes)
}

func TestDraftNoOps(t *testing.T) {
	mc := &stubClient{}
	s := newTestSession(t, mc, nil)

	require.NoError(t, s.Draft(context.Background(), "   ", gothicHorror(t)))
	require.NoError(t, s.Draft(context.Background(), "Some excerpt", nil))

	assert.Empty(t, mc.draftExcerpts)
	assert.Equal(t, StateIdle, s.State())
}

func TestFirstDraftFailure(t *testing.T) {
	mc := &stubClient{draftErr: &client.Error{Kind: client.KindGeneration, Message: "Failed to generate image"}}
	s := newTestSession(t, mc, nil)

	err := s.Draft(context.Background(), "excerpt", gothicHorror(t))
	require.Error(t, err)
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, "Failed to generate image", s.ErrorMessage())
	assert.Empty(t, s.Media().ImageURL)
}

func TestRedraftFailureKeepsImage(t *testing.T) {
	mc := &stubClient{draftErr: &client.Error{Kind: client.KindGeneration, Message: "Failed to generate image"}}
	s := newTestSession(t, mc, nil)
	require.NoError(t, s.UploadImage("data:image/png;base64,a2VwdA=="))

	err := s.Draft(context.Background(), "another excerpt", gothicHorror(t))
	require.Error(t, err)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, "data:image/png;base64,a2VwdA==", s.Media().ImageURL)
}

func TestUploadImage(t *testing.T) {
	s := newTestSession(t, &stubClient{}, nil)
	require.NoError(t, s.UploadImage("data:image/png;base64,dXA="))

	media := s.Media()
	assert.Equal(t, "data:image/png;base64,dXA=", media.ImageURL)
	assert.Empty(t, media.VideoURL)
	assert.Equal(t, "Uploaded image", media.Excerpt)
	assert.Equal(t, "Uploaded image", media.LastPrompt)
	assert.Nil(t, media.SelectedStyle)
	assert.Equal(t, StateCompleted, s.State())
}

func TestEditSuccess(t *testing.T) {
	mc := &stubClient{editResult: "data:image/png;base64,ZWRpdGVk"}
	s := newTestSession(t, mc, nil)
	require.NoError(t, s.UploadImage("data:image/png;base64,b3JpZw=="))

	require.NoError(t, s.Edit(context.Background(), "add rain"))

	media := s.Media()
	assert.Equal(t, "data:image/png;base64,ZWRpdGVk", media.ImageURL)
	// Only the image changes; the recorded prompt survives the edit.
	assert.Equal(t, "Uploaded image", media.LastPrompt)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, []string{"data:image/png;base64,b3JpZw=="}, mc.editImages)
}

func TestEditNoOps(t *testing.T) {
	mc := &stubClient{}
	s := newTestSession(t, mc, nil)

	// No keyframe yet.
	require.NoError(t, s.Edit(context.Background(), "add rain"))
	require.NoError(t, s.UploadImage("data:image/png;base64,b3JpZw=="))
	// Blank instruction.
	require.NoError(t, s.Edit(context.Background(), "   "))

	assert.Empty(t, mc.editImages)
}

func TestEditFailureKeepsImage(t *testing.T) {
	mc := &stubClient{editErr: &client.Error{Kind: client.KindGeneration, Message: "Failed to edit image"}}
	s := newTestSession(t, mc, nil)
	require.NoError(t, s.UploadImage("data:image/png;base64,b3JpZw=="))

	err := s.Edit(context.Background(), "add rain")
	require.Error(t, err)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, "data:image/png;base64,b3JpZw==", s.Media().ImageURL)
	assert.Equal(t, "Failed to edit image", s.ErrorMessage())
}

func TestAnimateSuccess(t *testing.T) {
	mc := &stubClient{animateResult: "data:video/mp4;base64,Y2xpcA=="}
	gate := &stubGate{selected: true}
	s := newTestSession(t, mc, gate)
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	require.NoError(t, s.Animate(context.Background()))

	media := s.Media()
	assert.Equal(t, "data:video/mp4;base64,Y2xpcA==", media.VideoURL)
	assert.Equal(t, "data:image/png;base64,a2V5", media.ImageURL)
	assert.Equal(t, "Uploaded image", mc.animatePrompt)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, KeyConfirmed, s.KeyState())
	assert.Zero(t, gate.openCalls)
}

func TestAnimateWithoutImageIsNoOp(t *testing.T) {
	mc := &stubClient{}
	s := newTestSession(t, mc, &stubGate{selected: true})

	require.NoError(t, s.Animate(context.Background()))
	assert.Empty(t, mc.animateImages)
	assert.Equal(t, StateIdle, s.State())
}

func TestAnimateOpensKeySelection(t *testing.T) {
	mc := &stubClient{animateResult: "data:video/mp4;base64,Y2xpcA=="}
	gate := &stubGate{selected: false}
	s := newTestSession(t, mc, gate)
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	require.NoError(t, s.Animate(context.Background()))
	assert.Equal(t, 1, gate.openCalls)
	assert.Equal(t, KeyConfirmed, s.KeyState())
}

func TestAnimateKeyGateFailure(t *testing.T) {
	mc := &stubClient{}
	gate := &stubGate{selected: false, openErr: errors.New("selection dismissed")}
	s := newTestSession(t, mc, gate)
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	err := s.Animate(context.Background())
	require.Error(t, err)
	assert.Equal(t, KeyUnknown, s.KeyState())
	assert.Empty(t, mc.animateImages)
	assert.Equal(t, StateCompleted, s.State())
}

func TestAnimateFailureKeepsMedia(t *testing.T) {
	mc := &stubClient{animateErr: &client.Error{Kind: client.KindGeneration, Message: "Failed to animate image"}}
	s := newTestSession(t, mc, &stubGate{selected: true})
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	err := s.Animate(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, "data:image/png;base64,a2V5", s.Media().ImageURL)
	assert.Empty(t, s.Media().VideoURL)
	assert.Equal(t, "Failed to animate image", s.ErrorMessage())
	assert.Equal(t, KeyConfirmed, s.KeyState())
}

func TestAnimateCredentialExpiredResetsKey(t *testing.T) {
	mc := &stubClient{animateErr: &client.Error{Kind: client.KindCredentialExpired, Message: "Requested entity was not found."}}
	s := newTestSession(t, mc, &stubGate{selected: true})
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	err := s.Animate(context.Background())
	require.Error(t, err)
	assert.Equal(t, KeyUnknown, s.KeyState())
	assert.Equal(t, expiredKeyMessage, s.ErrorMessage())
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, "data:image/png;base64,a2V5", s.Media().ImageURL)
}

func TestSingleFlight(t *testing.T) {
	mc := &stubClient{draftResult: "data:image/png;base64,aW1n", release: make(chan struct{})}
	s := newTestSession(t, mc, nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Draft(context.Background(), "excerpt", gothicHorror(t))
	}()

	// Wait for the first draft to reach the blocked client call.
	require.Eventually(t, func() bool {
		return s.State() == StateDrafting
	}, time.Second, time.Millisecond)

	err := s.Edit(context.Background(), "add rain")
	// Edit no-ops without a keyframe; UploadImage exercises the guard.
	require.NoError(t, err)
	require.ErrorIs(t, s.UploadImage("data:image/png;base64,dXA="), ErrBusy)

	close(mc.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateCompleted, s.State())
}

func TestAnimateRotatesLoadingMessages(t *testing.T) {
	mc := &stubClient{animateResult: "data:video/mp4;base64,Y2xpcA==", release: make(chan struct{})}
	s := newTestSession(t, mc, &stubGate{selected: true})
	require.NoError(t, s.UploadImage("data:image/png;base64,a2V5"))

	done := make(chan error, 1)
	go func() {
		done <- s.Animate(context.Background())
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateAnimating
	}, time.Second, time.Millisecond)
	assert.Equal(t, styles.LoadingMessages[0], s.StatusMessage())

	require.Eventually(t, func() bool {
		return s.StatusMessage() != styles.LoadingMessages[0]
	}, time.Second, time.Millisecond)

	close(mc.release)
	require.NoError(t, <-done)
	assert.Empty(t, s.StatusMessage())
}

func TestDraftEditAnimateScenario(t *testing.T) {
	mc := &stubClient{
		draftResult:   "data:image/png;base64,ZHJhZnQ=",
		editResult:    "data:image/png;base64,ZWRpdA==",
		animateResult: "data:video/mp4;base64,bW92aWU=",
	}
	gate := &stubGate{selected: true}
	s := newTestSession(t, mc, gate)
	style := gothicHorror(t)

	require.NoError(t, s.Draft(context.Background(), "A lantern flickers in the fog", style))
	require.NoError(t, s.Edit(context.Background(), "make the fog denser"))
	require.NoError(t, s.Animate(context.Background()))

	media := s.Media()
	assert.Equal(t, "data:image/png;base64,ZWRpdA==", media.ImageURL)
	assert.Equal(t, "data:video/mp4;base64,bW92aWU=", media.VideoURL)
	assert.Equal(t, "A lantern flickers in the fog", media.Excerpt)
	assert.Equal(t, "A lantern flickers in the fog", media.LastPrompt)
	assert.Equal(t, style.ID, media.SelectedStyle.ID)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, KeyConfirmed, s.KeyState())

	// The clip animates the edited image, but the motion prompt stays the
	// scene description from the draft.
	assert.Equal(t, "A lantern flickers in the fog", mc.animatePrompt)
	assert.Equal(t, []string{"data:image/png;base64,ZWRpdA=="}, mc.animateImages)
}

func TestAnimateAfterEditUsesDraftPrompt(t *testing.T) {
	mc := &stubClient{
		draftResult:   "data:image/png;base64,ZHJhZnQ=",
		editResult:    "data:image/png;base64,ZWRpdA==",
		animateResult: "data:video/mp4;base64,bW92aWU=",
	}
	s := newTestSession(t, mc, &stubGate{selected: true})

	require.NoError(t, s.Draft(context.Background(), "A lantern flickers in the fog", gothicHorror(t)))
	require.NoError(t, s.Edit(context.Background(), "add rain"))
	require.NoError(t, s.Animate(context.Background()))

	assert.Equal(t, "A lantern flickers in the fog", mc.animatePrompt)
	assert.Equal(t, "A lantern flickers in the fog", s.Media().LastPrompt)
}
