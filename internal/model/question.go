package model

// Question is immutable reference data. A question may have several correct
// options; an answer is correct only when the submitted index set is exactly
// equal to CorrectIndexes.
type Question struct {
	ID             string   `json:"id" bson:"_id,omitempty"`
	Text           string   `json:"text" bson:"text"`
	Options        []string `json:"options" bson:"options"`
	CorrectIndexes []int    `json:"correctIndexes" bson:"correctIndexes"`
	Category       string   `json:"category" bson:"category"`
	Difficulty     string   `json:"difficulty" bson:"difficulty"`
}

// IsCorrect reports whether the selected index set matches the correct set
// exactly, ignoring order and duplicates.
func (q *Question) IsCorrect(selected []int) bool {
	want := make(map[int]struct{}, len(q.CorrectIndexes))
	for _, i := range q.CorrectIndexes {
		want[i] = struct{}{}
	}
	got := make(map[int]struct{}, len(selected))
	for _, i := range selected {
		got[i] = struct{}{}
	}
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if _, ok := got[i]; !ok {
			return false
		}
	}
	return true
}
