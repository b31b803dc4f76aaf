package book

type BookReq struct {
	Title     string `json:"title" validate:"required"`
	AuthorID  int64  `json:"author_id" validate:"required,gt=0"`
	GenreID   int64  `json:"genre_id" validate:"required,gt=0"`
	Cover     string `json:"cover" validate:"omitempty,oneof=HARD SOFT"`
	Inventory int64  `json:"inventory" validate:"gte=0"`
	DailyFee  string `json:"daily_fee" validate:"omitempty,numeric"`
}
