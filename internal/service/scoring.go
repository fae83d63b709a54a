package service

// Score weights
const (
	scoreWin            = 1000.0
	scorePerGuess       = 10.0
	scorePerWrongLetter = 5.0
	scorePerWrongWord   = 40.0
	scorePerSecond      = 0.2
	scorePerLetter      = 2.0
)

// ScoreInput is everything the composite score depends on
type ScoreInput struct {
	Won              bool
	TotalGuesses     int
	WrongLetters     int
	WrongWordGuesses int
	ElapsedSeconds   float64
	WordLength       int
}

// Score computes the composite score of a finished game. It is pure and may
// return a negative value.
func Score(in ScoreInput) float64 {
	won := 0.0
	if in.Won {
		won = 1
	}
	return scoreWin*won -
		scorePerGuess*float64(in.TotalGuesses) -
		scorePerWrongLetter*float64(in.WrongLetters) -
		scorePerWrongWord*float64(in.WrongWordGuesses) -
		scorePerSecond*in.ElapsedSeconds +
		scorePerLetter*float64(in.WordLength)
}
