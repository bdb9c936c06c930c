// internal/game/rules.go
package game

import "github.com/wildfour/uno/internal/models"

// IsLegalPlay reports whether candidate may be played on top of topCard.
// Wild cards are always legal. Otherwise the play must match the top card's
// color, match its number value (both Number), or match its kind (covering
// same-kind cross-color Skip/Reverse/Draw Two plays).
func IsLegalPlay(topCard, candidate models.Card) bool {
	if candidate.IsWild() {
		return true
	}
	if topCard.Color == candidate.Color {
		return true
	}
	if topCard.Kind == models.KindNumber && candidate.Kind == models.KindNumber {
		return topCard.Value == candidate.Value
	}
	return topCard.Kind == candidate.Kind
}

// NextIndex returns the seat index following current under direction.
// direction is +1 or -1; the playerCount term keeps the result in [0, n).
func NextIndex(current, direction, playerCount int) int {
	return (current + direction + playerCount) % playerCount
}

// PlayEffect describes what a played card does to the turn sequence. Effects
// are pure descriptions; Room.applyEffect performs the mutations and emits
// the events, so the sequencing lives in one place.
type PlayEffect struct {
	// Advance is the net number of turn positions consumed by the play,
	// including the normal pass to the next player.
	Advance int
	// FlipDirection reverses play direction before any advance.
	FlipDirection bool
	// TargetDraws is the number of cards drawn by the player reached after
	// the first advance. Their turn is consumed (Advance covers it).
	TargetDraws int
	// ReportSkip reports the immediately-next player as skipped.
	ReportSkip bool
}

// EffectHandler produces the effect description for one card kind.
type EffectHandler func(playerCount int) PlayEffect

// effectHandlers maps every card kind to its handler. Number and plain Wild
// consume one position; the action kinds consume two (a skip, or a forced
// draw that uses up the target's turn). Reverse consumes one, except in a
// two-player game where flipping is equivalent to a skip.
var effectHandlers = map[models.Kind]EffectHandler{
	models.KindNumber:       numberEffect,
	models.KindWild:         numberEffect,
	models.KindSkip:         skipEffect,
	models.KindReverse:      reverseEffect,
	models.KindDrawTwo:      drawTwoEffect,
	models.KindWildDrawFour: wildDrawFourEffect,
}

func numberEffect(int) PlayEffect {
	return PlayEffect{Advance: 1}
}

func skipEffect(int) PlayEffect {
	return PlayEffect{Advance: 2, ReportSkip: true}
}

func reverseEffect(playerCount int) PlayEffect {
	if playerCount == 2 {
		return PlayEffect{Advance: 2, FlipDirection: true}
	}
	return PlayEffect{Advance: 1, FlipDirection: true}
}

func drawTwoEffect(int) PlayEffect {
	return PlayEffect{Advance: 2, TargetDraws: 2}
}

func wildDrawFourEffect(int) PlayEffect {
	return PlayEffect{Advance: 2, TargetDraws: 4}
}

// EffectFor returns the effect description for kind given the current player
// count. Unknown kinds behave like Number.
func EffectFor(kind models.Kind, playerCount int) PlayEffect {
	if handler, ok := effectHandlers[kind]; ok {
		return handler(playerCount)
	}
	return numberEffect(playerCount)
}
