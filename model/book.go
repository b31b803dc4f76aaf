// model/book.go
package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Author struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (a Author) FullName() string { return a.FirstName + " " + a.LastName }

// MarshalJSON adds the derived full_name to author payloads.
func (a Author) MarshalJSON() ([]byte, error) {
	type alias Author
	return json.Marshal(struct {
		alias
		FullName string `json:"full_name"`
	}{alias(a), a.FullName()})
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

func (c Cover) Valid() bool { return c == CoverHard || c == CoverSoft }

type Book struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	AuthorID int64  `json:"author_id"`
	GenreID  int64  `json:"genre_id"`
	Cover    Cover  `json:"cover"`
	// Inventory is the number of copies currently on the shelf. Open
	// borrowing items have already been subtracted from it.
	Inventory int64           `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}
