package projection

import "strings"

// genreColors is the stable genre palette for the universe view.
var genreColors = map[string]string{
	"pop":          "#ff00ff",
	"rock":         "#ff3333",
	"hip-hop":      "#ffff00",
	"electronic":   "#00ffff",
	"instrumental": "#00ff99",
	"jazz":         "#9900ff",
	"classical":    "#ffffff",
	"folk":         "#ff9900",
	"unknown":      "#888888",
}

// defaultColor is used for genres outside the palette.
const defaultColor = "#888888"

// GenreColor returns the display color for a genre label.
func GenreColor(genre string) string {
	if c, ok := genreColors[strings.ToLower(genre)]; ok {
		return c
	}
	return defaultColor
}
