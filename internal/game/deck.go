// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/wildfour/uno/internal/models"
)

// DeckSize is the number of cards in a freshly built deck.
const DeckSize = 108

// BuildDeck returns the canonical 108-card UNO deck, unshuffled.
// Per color: one 0, two each of 1-9, two each of Skip/Reverse/Draw Two.
// Plus four Wild and four Wild Draw Four.
func BuildDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)

	actions := []models.Kind{models.KindSkip, models.KindReverse, models.KindDrawTwo}
	for _, color := range models.BaseColors {
		deck = append(deck, models.Card{Color: color, Kind: models.KindNumber, Value: 0})
		for value := 1; value <= 9; value++ {
			for i := 0; i < 2; i++ {
				deck = append(deck, models.Card{Color: color, Kind: models.KindNumber, Value: value})
			}
		}
		for _, action := range actions {
			for i := 0; i < 2; i++ {
				deck = append(deck, models.Card{Color: color, Kind: action})
			}
		}
	}

	for i := 0; i < 4; i++ {
		deck = append(deck, models.Card{Color: models.ColorWild, Kind: models.KindWild})
		deck = append(deck, models.Card{Color: models.ColorWild, Kind: models.KindWildDrawFour})
	}

	return deck
}

// shuffleDeck permutes cards in place with a Fisher-Yates walk from the last
// index down, swapping each position with a uniformly chosen earlier one.
func shuffleDeck(cards []models.Card, r *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
