package catalog

// Style is one entry of the static haircut catalog shown in the gallery.
type Style struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Prompt       string `json:"prompt"`
}

var styles = []Style{
	{
		ID:           "low-fade",
		Name:         "Low Fade",
		ThumbnailURL: "https://picsum.photos/seed/lowfade/300/300",
		Prompt:       "a clean, professionally-done low fade haircut with a textured top",
	},
	{
		ID:           "mid-fade",
		Name:         "Mid Fade",
		ThumbnailURL: "https://picsum.photos/seed/midfade/300/300",
		Prompt:       "a stylish mid fade haircut with a short pompadour on top",
	},
	{
		ID:           "high-fade",
		Name:         "High Fade",
		ThumbnailURL: "https://picsum.photos/seed/highfade/300/300",
		Prompt:       "a sharp high fade haircut with a line-up and short curly hair on top",
	},
	{
		ID:           "taper-fade",
		Name:         "Taper Fade",
		ThumbnailURL: "https://picsum.photos/seed/taper/300/300",
		Prompt:       "a classic taper fade haircut with a side part",
	},
	{
		ID:           "buzz-cut",
		Name:         "Buzz Cut",
		ThumbnailURL: "https://picsum.photos/seed/buzzcut/300/300",
		Prompt:       "a uniform buzz cut, very short and clean",
	},
	{
		ID:           "crew-cut",
		Name:         "Crew Cut",
		ThumbnailURL: "https://picsum.photos/seed/crewcut/300/300",
		Prompt:       "a classic crew cut, short on the sides and slightly longer on top",
	},
	{
		ID:           "slick-back",
		Name:         "Slick Back",
		ThumbnailURL: "https://picsum.photos/seed/slickback/300/300",
		Prompt:       "a slicked-back hairstyle with an undercut",
	},
	{
		ID:           "french-crop",
		Name:         "French Crop",
		ThumbnailURL: "https://picsum.photos/seed/frenchcrop/300/300",
		Prompt:       "a modern French crop with a textured fringe and a skin fade",
	},
	{
		ID:           "pompadour",
		Name:         "Pompadour",
		ThumbnailURL: "https://picsum.photos/seed/pompadour/300/300",
		Prompt:       "a voluminous pompadour with faded sides",
	},
	{
		ID:           "waves",
		Name:         "360 Waves",
		ThumbnailURL: "https://picsum.photos/seed/waves/300/300",
		Prompt:       "perfectly defined 360 waves with a sharp line-up",
	},
	{
		ID:           "dreadlocks",
		Name:         "Short Dreads",
		ThumbnailURL: "https://picsum.photos/seed/dreads/300/300",
		Prompt:       "short, neat dreadlocks with a temple fade",
	},
	{
		ID:           "curly-top-fade",
		Name:         "Curly Top Fade",
		ThumbnailURL: "https://picsum.photos/seed/curlytop/300/300",
		Prompt:       "a fade on the sides with natural, medium-length curls on top",
	},
	{
		ID:           "quiff",
		Name:         "Quiff",
		ThumbnailURL: "https://picsum.photos/seed/quiff/300/300",
		Prompt:       "a modern quiff hairstyle with volume on top and short sides",
	},
	{
		ID:           "faux-hawk",
		Name:         "Faux Hawk",
		ThumbnailURL: "https://picsum.photos/seed/fauxhawk/300/300",
		Prompt:       "a stylish faux hawk with a taper fade on the sides",
	},
	{
		ID:           "box-braids",
		Name:         "Box Braids",
		ThumbnailURL: "https://picsum.photos/seed/boxbraids/300/300",
		Prompt:       "neat, shoulder-length box braids",
	},
	{
		ID:           "cornrows",
		Name:         "Cornrows",
		ThumbnailURL: "https://picsum.photos/seed/cornrows/300/300",
		Prompt:       "classic straight-back cornrows, clean and sharp",
	},
	{
		ID:           "afro-fade",
		Name:         "Afro Fade",
		ThumbnailURL: "https://picsum.photos/seed/afrofade/300/300",
		Prompt:       "a well-shaped afro with a low fade on the sides and back",
	},
	{
		ID:           "man-bun",
		Name:         "Man Bun",
		ThumbnailURL: "https://picsum.photos/seed/manbun/300/300",
		Prompt:       "a trendy man bun with an undercut",
	},
}

func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

func ByID(id string) (Style, bool) {
	for _, s := range styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}
