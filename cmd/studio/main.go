// Command studio drives a full excerpt-to-video session from the terminal
// against a running gateway: draft a keyframe (or upload one), apply edits,
// optionally animate, and write the results to disk.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cinematica/internal/client"
	"cinematica/internal/datauri"
	"cinematica/internal/infra"
	"cinematica/internal/storage"
	"cinematica/internal/studio"
	"cinematica/internal/styles"
)

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, "; ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// terminalKeyGate satisfies the key-selection capability by asking the person
// at the keyboard to confirm the gateway has a key configured.
type terminalKeyGate struct {
	in      *bufio.Reader
	assumed bool
}

func (g *terminalKeyGate) HasSelectedKey(ctx context.Context) (bool, error) {
	return g.assumed, nil
}

func (g *terminalKeyGate) OpenSelectKey(ctx context.Context) error {
	fmt.Fprintln(os.Stderr, "Video generation needs an API key configured on the gateway (GEMINI_API_KEY).")
	fmt.Fprint(os.Stderr, "Press Enter to continue once the key is in place: ")
	_, err := g.in.ReadString('\n')
	return err
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var edits multiFlag
	gatewayURL := flag.String("gateway", "http://localhost:8080", "base URL of the gateway")
	excerpt := flag.String("excerpt", "", "book excerpt to visualize")
	styleID := flag.String("style", "epic", "cinematic style id (noir, cyberpunk, ghibli, epic, horror)")
	uploadPath := flag.String("upload", "", "use this image file as the keyframe instead of drafting one")
	animate := flag.Bool("animate", false, "animate the final keyframe into a video clip")
	assumeKey := flag.Bool("assume-key", false, "skip the interactive key confirmation")
	outDir := flag.String("out", "out", "directory for generated media")
	flag.Var(&edits, "edit", "edit instruction applied to the keyframe (repeatable)")
	flag.Parse()

	logger := infra.NewLogger("development")
	ctx := context.Background()

	if *excerpt == "" && *uploadPath == "" {
		logger.Fatal().Msg("either -excerpt or -upload is required")
	}

	mediaClient, err := client.New(client.Options{
		BaseURL:    *gatewayURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media client")
	}

	gate := &terminalKeyGate{in: bufio.NewReader(os.Stdin), assumed: *assumeKey}
	session, err := studio.NewSession(studio.Options{
		Client: mediaClient,
		Keys:   gate,
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize session")
	}

	store, err := storage.NewFileStore(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize output store")
	}

	if *uploadPath != "" {
		if err := uploadKeyframe(session, *uploadPath); err != nil {
			logger.Fatal().Err(err).Str("path", *uploadPath).Msg("failed to upload keyframe")
		}
		logger.Info().Str("path", *uploadPath).Msg("keyframe uploaded")
	} else {
		style, ok := styles.ByID(*styleID)
		if !ok {
			logger.Fatal().Str("style", *styleID).Msg("unknown style id")
		}
		logger.Info().Str("style", style.Name).Msg("drafting keyframe")
		if err := session.Draft(ctx, *excerpt, style); err != nil {
			logger.Fatal().Err(err).Msg(session.ErrorMessage())
		}
	}

	for _, instruction := range edits {
		logger.Info().Str("instruction", instruction).Msg("applying edit")
		if err := session.Edit(ctx, instruction); err != nil {
			logger.Fatal().Err(err).Msg(session.ErrorMessage())
		}
	}

	key, err := store.SaveMedia(ctx, "keyframe", session.Media().ImageURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to save keyframe")
	}
	logger.Info().Str("file", key).Str("dir", store.BasePath()).Msg("keyframe saved")

	if !*animate {
		return
	}

	done := make(chan struct{})
	go reportProgress(session, &logger, done)
	err = session.Animate(ctx)
	close(done)
	if err != nil {
		logger.Fatal().Err(err).Msg(session.ErrorMessage())
	}

	key, err = store.SaveMedia(ctx, "clip", session.Media().VideoURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to save clip")
	}
	logger.Info().Str("file", key).Str("dir", store.BasePath()).Msg("clip saved")
}

func uploadKeyframe(session *studio.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return session.UploadImage(datauri.Encode(http.DetectContentType(data), data))
}

// reportProgress echoes the session's rotating status line until the
// animation settles.
func reportProgress(session *studio.Session, logger *infra.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	last := ""
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if msg := session.StatusMessage(); msg != "" && msg != last {
				logger.Info().Msg(msg)
				last = msg
			}
		}
	}
}
