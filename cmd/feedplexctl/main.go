// feedplexctl inspects a profile's cache database offline. It opens the
// store directly and read-only in spirit: it never writes, but it cannot run
// while the daemon holds the profile lock with the bolt backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/feedplex/feedplex/internal/config"
	"github.com/feedplex/feedplex/internal/kvstore"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/store"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	configDefault := ""
	backend := ""
	if cfg, err := config.Load(session.ConfigPath()); err == nil {
		configDefault = cfg.DefaultProfile
		backend = cfg.Storage.Backend
	}

	profile := session.ResolveProfile(*profileFlag, configDefault)
	if err := session.ValidateProfile(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}
	accountID := args[0]

	st, closeFn, err := openStore(profile, backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot open cache for profile %q: %v\n", profile, err)
		os.Exit(1)
	}
	defer closeFn()

	switch args[1] {
	case "timelines":
		cmdTimelines(st, accountID, *jsonFlag)
	case "timeline":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: feedplexctl <account> timeline <name>")
			os.Exit(1)
		}
		cmdTimeline(st, accountID, args[2], *jsonFlag)
	case "cursors":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: feedplexctl <account> cursors <timeline>")
			os.Exit(1)
		}
		cmdCursor(st, accountID, args[2], *jsonFlag)
	case "status":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: feedplexctl <account> status <id>")
			os.Exit(1)
		}
		cmdStatus(st, accountID, args[2])
	case "bookmarks":
		cmdBookmarks(st, accountID, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[1])
		printUsage()
		os.Exit(1)
	}
}

func openStore(profile, backend string) (*store.Store, func(), error) {
	dbPath := session.DBPath(profile)
	var (
		kv  kvstore.Store
		err error
	)
	switch backend {
	case "", "bolt":
		kv, err = kvstore.OpenBolt(dbPath)
	case "sqlite":
		kv, err = kvstore.OpenSQLite(dbPath)
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return store.New(kv), func() { _ = kv.Close() }, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: feedplexctl [--profile <name>] [--json] <account> <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  timelines             List cached timelines")
	fmt.Fprintln(os.Stderr, "  timeline <name>       Show a timeline's summary list")
	fmt.Fprintln(os.Stderr, "  cursors <timeline>    Show a timeline's pagination cursor")
	fmt.Fprintln(os.Stderr, "  status <id>           Show one cached status")
	fmt.Fprintln(os.Stderr, "  bookmarks             List local bookmarks")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

func cmdTimelines(st *store.Store, accountID string, jsonOut bool) {
	names, err := st.ListTimelines(accountID)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(names)
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdTimeline(st *store.Store, accountID, name string, jsonOut bool) {
	items, err := st.GetTimeline(accountID, name)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(items)
		return
	}
	for _, item := range items {
		fmt.Printf("%s  %s  %s\n", item.SortKey, item.Type, item.ID)
	}
}

func cmdCursor(st *store.Store, accountID, timeline string, jsonOut bool) {
	rec, found, err := st.GetCursor(accountID, timeline)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(map[string]any{"found": found, "token": rec.Token, "end": rec.End})
		return
	}
	if !found {
		fmt.Println("never fetched")
		return
	}
	if rec.End {
		fmt.Println("end of feed")
		return
	}
	fmt.Printf("token: %s\n", rec.Token)
}

func cmdStatus(st *store.Store, accountID, id string) {
	s, err := st.GetStatus(accountID, id)
	if err != nil {
		fatal(err)
	}
	if s == nil {
		fmt.Fprintln(os.Stderr, "not cached")
		os.Exit(1)
	}
	outputJSON(s)
}

func cmdBookmarks(st *store.Store, accountID string, jsonOut bool) {
	bookmarks, err := st.ListBookmarks(accountID)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(bookmarks)
		return
	}
	for _, b := range bookmarks {
		fmt.Printf("%s  %s\n", b.BookmarkedAt.Format("2006-01-02 15:04"), b.PostID)
	}
}
