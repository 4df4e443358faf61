package model

// Genre is reference data: created out-of-band (see cmd/seed) and treated
// as immutable once media items point at it. There is no delete path.
type Genre struct {
	ID    string `json:"id"    bson:"_id"`
	Title string `json:"title" bson:"title"`
}
