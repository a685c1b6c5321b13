// Package styles holds the static catalog of cinematic looks a keyframe can
// be drafted in. Entries are read-only reference data; the prompt suffix is
// appended verbatim to the user's excerpt when generating.
package styles

// CinematicStyle describes one entry of the style catalog.
type CinematicStyle struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PromptSuffix string `json:"promptSuffix"`
	PreviewURL   string `json:"previewUrl"`
}

var catalog = []CinematicStyle{
	{
		ID:           "noir",
		Name:         "Vintage Noir",
		Description:  "High contrast black and white, dramatic shadows, mysterious atmosphere.",
		PromptSuffix: "in the style of classic 1940s film noir, high contrast black and white, grainy film texture, dramatic chiaroscuro lighting",
		PreviewURL:   "https://picsum.photos/seed/noir/400/225",
	},
	{
		ID:           "cyberpunk",
		Name:         "Neon Cyberpunk",
		Description:  "Vibrant neon colors, rainy streets, futuristic urban aesthetics.",
		PromptSuffix: "in a cyberpunk aesthetic, vibrant neon cyan and magenta lighting, rainy city streets, cinematic anamorphic flares, futuristic atmosphere",
		PreviewURL:   "https://picsum.photos/seed/cyber/400/225",
	},
	{
		ID:           "ghibli",
		Name:         "Ghibli Fantasy",
		Description:  "Soft hand-painted textures, lush nature, whimsical lighting.",
		PromptSuffix: "in the style of Studio Ghibli, hand-painted anime aesthetics, lush green meadows, soft golden hour lighting, whimsical and peaceful",
		PreviewURL:   "https://picsum.photos/seed/ghibli/400/225",
	},
	{
		ID:           "epic",
		Name:         "Epic Cinematic",
		Description:  "Grand scale, panoramic vistas, 70mm film look.",
		PromptSuffix: "epic grand scale cinematography, shot on 70mm film, panoramic vistas, majestic lighting, highly detailed textures, masterfully composed",
		PreviewURL:   "https://picsum.photos/seed/epic/400/225",
	},
	{
		ID:           "horror",
		Name:         "Gothic Horror",
		Description:  "Desaturated, eerie fog, Victorian dark aesthetics.",
		PromptSuffix: "gothic horror aesthetic, desaturated colors, dense fog, Victorian architecture, eerie atmosphere, moody lighting",
		PreviewURL:   "https://picsum.photos/seed/horror/400/225",
	},
}

// LoadingMessages rotate on the animate progress ticker while a video render
// is in flight.
var LoadingMessages = []string{
	"Framing the sequence...",
	"Simulating light transport...",
	"Applying cinematic grain...",
	"Syncing temporal consistency...",
	"Developing the motion paths...",
	"Finalizing color grade...",
	"The director is reviewing the cut...",
}

// All returns the full catalog in display order.
func All() []CinematicStyle {
	out := make([]CinematicStyle, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a style by its identifier. The second return value reports
// whether the style exists.
func ByID(id string) (*CinematicStyle, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			s := catalog[i]
			return &s, true
		}
	}
	return nil, false
}
