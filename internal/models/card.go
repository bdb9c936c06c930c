// internal/models/card.go
package models

// Color is the face color of a card. Wild cards carry ColorWild in the deck
// and are reassigned to one of the four base colors at play time.
type Color string

const (
	ColorRed    Color = "Red"
	ColorBlue   Color = "Blue"
	ColorGreen  Color = "Green"
	ColorYellow Color = "Yellow"
	ColorWild   Color = "Wild"
)

// BaseColors lists the four playable colors a wild card may be assigned.
var BaseColors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// IsBase reports whether c is one of the four non-wild colors.
func (c Color) IsBase() bool {
	for _, base := range BaseColors {
		if c == base {
			return true
		}
	}
	return false
}

// Kind identifies the card's function. The string values are the wire names
// clients see inside gameState payloads.
type Kind string

const (
	KindNumber       Kind = "Number"
	KindSkip         Kind = "Skip"
	KindReverse      Kind = "Reverse"
	KindDrawTwo      Kind = "Draw Two"
	KindWild         Kind = "Wild"
	KindWildDrawFour Kind = "Wild Draw Four"
)

// Card is a single UNO card. Value is meaningful only when Kind == KindNumber.
type Card struct {
	Color Color `json:"color"`
	Kind  Kind  `json:"type"`
	Value int   `json:"value"`
}

// IsWild reports whether the card is a Wild or Wild Draw Four.
func (c Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}
