package notekeep_test

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/notekeep"
	"github.com/aretw0/notekeep/internal/devserver"
)

// Example_basic signs up against a local dev backend, saves a note and lists it.
func Example_basic() {
	gin.SetMode(gin.ReleaseMode)
	backend := devserver.New(devserver.Config{})
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	tmpDir, err := os.MkdirTemp("", "notekeep-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := notekeep.DefaultConfig()
	cfg.URL = srv.URL
	cfg.AnonKey = backend.AnonKey()
	cfg.SessionFile = filepath.Join(tmpDir, "session.yaml")

	app, err := notekeep.New(cfg, notekeep.WithProbing(false), notekeep.WithSessionWatch(false))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Close(ctx)

	// 1. Create an account and sign in
	if _, err := app.Auth.SignUp(ctx, "gopher@example.com", "secret"); err != nil {
		log.Fatal(err)
	}
	if _, err := app.Auth.SignIn(ctx, "gopher@example.com", "secret"); err != nil {
		log.Fatal(err)
	}

	// 2. Save a note through the view model
	list := app.NewNoteList()
	if err := list.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer list.Close()

	if err := list.SetDraft("Groceries", "milk, eggs"); err != nil {
		log.Fatal(err)
	}
	if err := list.SaveDraft(ctx); err != nil {
		log.Fatal(err)
	}

	for _, n := range list.Snapshot().Notes {
		fmt.Printf("%s: %s\n", n.DisplayTitle(), n.Content)
	}
	// Output:
	// Groceries: milk, eggs
}
