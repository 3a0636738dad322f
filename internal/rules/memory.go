package rules

import (
	"encoding/json"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
)

// MemorySymbols are the card faces; every symbol appears exactly twice
var MemorySymbols = []string{"🎨", "🎭", "🎪", "🎬", "🎮", "🎯", "🎲", "🎸"}

// MemoryDeckSize is the number of cards in play
var MemoryDeckSize = 2 * len(MemorySymbols)

// Card is one face-down or face-up card
type Card struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Reveal records the last pair a seat turned over so clients can show it
// after a mismatch has already been flipped back
type Reveal struct {
	Seat    model.Seat `json:"seat"`
	Cards   [2]int     `json:"cards"`
	Matched bool       `json:"matched"`
}

// MemoryState is a memory-match-battle deck plus turn and scores
type MemoryState struct {
	Cards   []Card                  `json:"cards"`
	Turn    model.Seat              `json:"turn"`
	Scores  [model.RoomCapacity]int `json:"scores"`
	Pending []int                   `json:"pending,omitempty"`
	Reveal  *Reveal                 `json:"reveal,omitempty"`
	Winner  *Outcome                `json:"winner,omitempty"`
}

func (*MemoryState) GameType() model.GameType { return model.GameMemoryMatch }

// MemoryMatch implements Module for memory-match-battle. A move's Position is
// the card index.
type MemoryMatch struct{}

var _ Module = (*MemoryMatch)(nil)

// NewMemoryMatch creates the memory-match module
func NewMemoryMatch() *MemoryMatch {
	return &MemoryMatch{}
}

func (*MemoryMatch) Type() model.GameType { return model.GameMemoryMatch }

func (*MemoryMatch) Labels() [model.RoomCapacity]string {
	return [2]string{"player1", "player2"}
}

func (*MemoryMatch) ServerInterpreted() bool { return false }

// InitialState deals a shuffled deck
func (*MemoryMatch) InitialState(rnd random.Random) State {
	symbols := make([]string, 0, MemoryDeckSize)
	symbols = append(symbols, MemorySymbols...)
	symbols = append(symbols, MemorySymbols...)
	random.Shuffle(rnd, len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	cards := make([]Card, len(symbols))
	for i, sym := range symbols {
		cards[i] = Card{ID: i, Symbol: sym}
	}
	return &MemoryState{Cards: cards, Turn: model.SeatHost}
}

func (mm *MemoryMatch) IsLegalMove(s State, seat model.Seat, m model.Move) bool {
	st, ok := s.(*MemoryState)
	if !ok || st.Turn != seat || len(st.Pending) >= 2 {
		return false
	}
	if m.Position < 0 || m.Position >= len(st.Cards) {
		return false
	}
	card := st.Cards[m.Position]
	if card.Flipped || card.Matched {
		return false
	}
	return mm.CheckTerminal(st) == nil
}

// ApplyMove flips one card. The second flip of a turn resolves the pair: a
// match scores and keeps the turn, a miss hides both and passes it.
func (mm *MemoryMatch) ApplyMove(s State, seat model.Seat, m model.Move) State {
	st := s.(*MemoryState)
	next := *st
	next.Cards = append([]Card(nil), st.Cards...)
	next.Pending = append([]int(nil), st.Pending...)
	if len(next.Pending) == 0 {
		next.Reveal = nil
	}

	next.Cards[m.Position].Flipped = true
	next.Pending = append(next.Pending, m.Position)

	if len(next.Pending) == 2 {
		a, b := next.Pending[0], next.Pending[1]
		matched := next.Cards[a].Symbol == next.Cards[b].Symbol
		if matched {
			next.Cards[a].Matched = true
			next.Cards[b].Matched = true
			next.Scores[seat]++
		} else {
			next.Cards[a].Flipped = false
			next.Cards[b].Flipped = false
			next.Turn = seat.Other()
		}
		next.Reveal = &Reveal{Seat: seat, Cards: [2]int{a, b}, Matched: matched}
		next.Pending = nil
	}

	next.Winner = mm.CheckTerminal(&next)
	return &next
}

func (*MemoryMatch) CheckTerminal(s State) *Outcome {
	st, ok := s.(*MemoryState)
	if !ok || len(st.Cards) == 0 {
		return nil
	}
	for _, c := range st.Cards {
		if !c.Matched {
			return nil
		}
	}
	switch {
	case st.Scores[0] > st.Scores[1]:
		return Win(model.SeatHost)
	case st.Scores[1] > st.Scores[0]:
		return Win(model.SeatGuest)
	default:
		return Draw()
	}
}

func (mm *MemoryMatch) LegalMoves(s State, seat model.Seat) []model.Move {
	st, ok := s.(*MemoryState)
	if !ok {
		return nil
	}
	var moves []model.Move
	for i := range st.Cards {
		m := model.Move{Position: i}
		if mm.IsLegalMove(st, seat, m) {
			moves = append(moves, m)
		}
	}
	return moves
}

func (*MemoryMatch) Decode(raw json.RawMessage) (State, error) {
	var st MemoryState
	if err := decodeInto(raw, &st); err != nil {
		return nil, err
	}
	if len(st.Cards) != MemoryDeckSize {
		return nil, invalid("deck has %d cards", len(st.Cards))
	}
	if !st.Turn.Valid() {
		return nil, invalid("turn %d", st.Turn)
	}
	if len(st.Pending) > 1 {
		return nil, invalid("%d cards pending", len(st.Pending))
	}
	for _, p := range st.Pending {
		if p < 0 || p >= len(st.Cards) || !st.Cards[p].Flipped {
			return nil, invalid("pending card %d", p)
		}
	}
	return &st, nil
}

func (*MemoryMatch) Encode(s State) (json.RawMessage, error) {
	return encode(s, model.GameMemoryMatch)
}
