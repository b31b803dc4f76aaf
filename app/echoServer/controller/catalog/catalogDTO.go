package catalog

type AuthorReq struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type GenreReq struct {
	Name string `json:"name" validate:"required"`
}
