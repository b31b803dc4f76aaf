package borrowing

type CreateItemReq struct {
	BookID             int64  `json:"book_id" validate:"required,gt=0"`
	Quantity           int64  `json:"quantity" validate:"required,gt=0"`
	BorrowDate         string `json:"borrow_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
}

type CreateBorrowingReq struct {
	Items []CreateItemReq `json:"items" validate:"required,min=1,dive"`
}

type ReturnItemReq struct {
	ItemID     int64  `json:"item_id" validate:"required,gt=0"`
	ReturnDate string `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
}
