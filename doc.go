// Package notekeep is the composition root of the notekeep client.
//
// notekeep is a small note-taking client for a hosted auth and data backend
// (GoTrue under /auth/v1, PostgREST under /rest/v1). All durable state lives
// in the backend; the client keeps only the session, in a local YAML file.
//
// The core is the note list view model (core.NoteList). It reconciles the
// session, network reachability and the create/update/delete lifecycle of
// notes into a single list that always equals the most recent successful
// fetch. Every gateway call is gated on connectivity and cancelled when the
// backend becomes unreachable.
//
// Usage:
//
//	cfg, err := notekeep.LoadConfig(notekeep.LoadOptions{})
//	app, err := notekeep.New(cfg, notekeep.WithLogger(logger))
//	err = app.Start(ctx)
//	defer app.Close(ctx)
//
//	notice, err := app.Auth.SignIn(ctx, "me@example.com", "secret")
//
//	list := app.NewNoteList()
//	err = list.Start(ctx)
//	err = list.SetDraft("Groceries", "milk")
//	err = list.SaveDraft(ctx)
package notekeep
