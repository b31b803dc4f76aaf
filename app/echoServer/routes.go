package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/rkostiv253/library-service/app/echoServer/controller/auth"
	"github.com/rkostiv253/library-service/app/echoServer/controller/book"
	"github.com/rkostiv253/library-service/app/echoServer/controller/borrowing"
	"github.com/rkostiv253/library-service/app/echoServer/controller/catalog"
	"github.com/rkostiv253/library-service/app/echoServer/jwtx"
)

type C struct {
	Auth      *auth.Controller
	Catalog   *catalog.Controller
	Book      *book.Controller
	Borrowing *borrowing.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Catalog reads are open to everyone
	pub.GET("/authors", c.Catalog.ListAuthors)
	pub.GET("/authors/:id", c.Catalog.AuthorDetail)
	pub.GET("/genres", c.Catalog.ListGenres)
	pub.GET("/genres/:id", c.Catalog.GenreDetail)
	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	authG := e.Group("/v1")
	authG.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))
	authG.Use(identity)

	// Catalog writes (admin gate inside controllers)
	authG.POST("/authors", c.Catalog.CreateAuthor)
	authG.PUT("/authors/:id", c.Catalog.UpdateAuthor)
	authG.DELETE("/authors/:id", c.Catalog.DeleteAuthor)
	authG.POST("/genres", c.Catalog.CreateGenre)
	authG.PUT("/genres/:id", c.Catalog.UpdateGenre)
	authG.DELETE("/genres/:id", c.Catalog.DeleteGenre)
	authG.POST("/books", c.Book.Create)
	authG.PUT("/books/:id", c.Book.Update)
	authG.DELETE("/books/:id", c.Book.Delete)

	// Borrowings
	authG.POST("/borrowings", c.Borrowing.Create)
	authG.GET("/borrowings", c.Borrowing.List)
	authG.GET("/borrowings/:id", c.Borrowing.Detail)
	authG.POST("/borrowings/:id/return-item", c.Borrowing.ReturnItem)
}

// identity copies the verified JWT identity into plain context keys so
// controllers never touch token internals.
func identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		uid, err := jwtx.UserIDFromContext(ctx)
		if err != nil {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		role, err := jwtx.RoleFromContext(ctx)
		if err != nil {
			role = "user"
		}
		ctx.Set("user_id", uid)
		ctx.Set("role", role)
		return next(ctx)
	}
}
