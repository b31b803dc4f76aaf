// Package main library borrowing API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/rkostiv253/library-service/app/echoServer"
	authctrl "github.com/rkostiv253/library-service/app/echoServer/controller/auth"
	bookctrl "github.com/rkostiv253/library-service/app/echoServer/controller/book"
	borrowingctrl "github.com/rkostiv253/library-service/app/echoServer/controller/borrowing"
	catalogctrl "github.com/rkostiv253/library-service/app/echoServer/controller/catalog"
	"github.com/rkostiv253/library-service/app/echoServer/validation"
	"github.com/rkostiv253/library-service/config"
	authrepo "github.com/rkostiv253/library-service/repository/auth"
	bookrepo "github.com/rkostiv253/library-service/repository/book"
	borrowingrepo "github.com/rkostiv253/library-service/repository/borrowing"
	catalogrepo "github.com/rkostiv253/library-service/repository/catalog"
	authsvc "github.com/rkostiv253/library-service/service/auth"
	booksvc "github.com/rkostiv253/library-service/service/book"
	borrowingsvc "github.com/rkostiv253/library-service/service/borrowing"
	catalogsvc "github.com/rkostiv253/library-service/service/catalog"
	"github.com/rkostiv253/library-service/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ar := authrepo.New(db.SQL)
	cr := catalogrepo.New(db.SQL)
	br := bookrepo.New(db.SQL)
	rr := borrowingrepo.New(db.SQL)

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	cs := catalogsvc.New(cr)
	bs := booksvc.New(br)
	rs := borrowingsvc.New(database.NewRunner(db.SQL), rr, cfg.LoanPeriodDays)

	// controllers
	v := validation.NewValidate()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	catalogC := &catalogctrl.Controller{Svc: cs, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowingC := &borrowingctrl.Controller{Svc: rs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Catalog:   catalogC,
		Book:      bookC,
		Borrowing: borrowingC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
