package models

import "strings"

type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// 18 common letters.
var easyLetters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I",
	"L", "M", "N", "O", "P", "R", "S", "T", "W",
}

var hardLetters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyHard
}

// Letters returns the alphabet played at this difficulty.
func (d Difficulty) Letters() []string {
	if d == DifficultyHard {
		return hardLetters
	}
	return easyLetters
}

// HasLetter reports whether letter (any case) belongs to the alphabet.
func (d Difficulty) HasLetter(letter string) bool {
	return containsString(d.Letters(), strings.ToUpper(letter))
}
