package utils

// ColourScheme is the Catppuccin Mocha palette, trimmed to the shades the
// interface draws with.
type ColourScheme struct {
	Pink     string
	Mauve    string
	Red      string
	Peach    string
	Yellow   string
	Green    string
	Teal     string
	Blue     string
	Lavender string
	Text     string
	Subtext0 string
	Overlay0 string
	Surface1 string
	Surface0 string
	Base     string
}

var Colours = ColourScheme{
	Pink:     "#f5c2e7",
	Mauve:    "#cba6f7",
	Red:      "#f38ba8",
	Peach:    "#fab387",
	Yellow:   "#f9e2af",
	Green:    "#a6e3a1",
	Teal:     "#94e2d5",
	Blue:     "#89b4fa",
	Lavender: "#b4befe",
	Text:     "#cdd6f4",
	Subtext0: "#a6adc8",
	Overlay0: "#6c7086",
	Surface1: "#45475a",
	Surface0: "#313244",
	Base:     "#1e1e2e",
}
