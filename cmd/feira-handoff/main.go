// feira-handoff writes a pending "open this conversation" intent into a
// session's handoff slot. It stands in for the listing and order pages that
// start a chat from elsewhere in the application; the daemon consumes the
// slot exactly once on its next activation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/feirahq/feirachat/internal/session"
	"github.com/feirahq/feirachat/internal/state"
	"github.com/feirahq/feirachat/internal/store"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	counterpart := flag.Int64("counterpart", 0, "counterpart user id (required)")
	name := flag.String("name", "", "counterpart display name, if known")
	itemID := flag.Int64("item-id", 0, "listing id to attach as item context")
	itemKind := flag.String("item-kind", "", "listing kind: sale, acquire, help, lostfound")
	itemTitle := flag.String("item-title", "", "listing title")
	itemPrice := flag.Int64("item-price", 0, "listing price in minor units")
	flag.Parse()

	if *counterpart == 0 {
		fmt.Fprintln(os.Stderr, "error: -counterpart is required")
		os.Exit(1)
	}

	rec := &state.PendingHandoff{
		CounterpartID:   *counterpart,
		CounterpartName: *name,
	}
	if *itemID != 0 {
		kind := state.ItemKind(*itemKind)
		switch kind {
		case state.ItemSale, state.ItemAcquire, state.ItemHelp, state.ItemLostFound:
		default:
			fmt.Fprintf(os.Stderr, "error: invalid item kind %q\n", *itemKind)
			os.Exit(1)
		}
		rec.Item = &state.ItemSnapshot{
			ID:    *itemID,
			Kind:  kind,
			Title: *itemTitle,
			Price: *itemPrice,
		}
	}

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := session.EnsureDir(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	db, err := store.Open(session.DBPath(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := db.PutHandoff(rec); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("handoff queued for counterpart %d (session %s)\n", *counterpart, sessionName)
}
