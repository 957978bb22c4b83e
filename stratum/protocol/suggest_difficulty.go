package protocol

type SuggestDifficulty struct {
	*Method
}

func NewSuggestDifficulty(difficulty float64) *SuggestDifficulty {
	return &SuggestDifficulty{NewMethod("mining.suggest_difficulty", difficulty)}
}
