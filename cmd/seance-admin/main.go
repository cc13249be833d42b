// ABOUTME: Admin CLI for seance mapping and exchange inspection
// ABOUTME: Reads the bridge database directly for operational debugging

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/seance/internal/config"
	"github.com/2389/seance/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "mappings":
		err = cmdMappings(args)
	case "exchanges":
		err = cmdExchanges(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: seance-admin <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mappings [limit]              List conversation -> session mappings")
	fmt.Println("  exchanges <conversation-id>   Show a conversation's exchange history")
}

// openStore opens the store at the configured database path.
// SEANCE_DB overrides the config lookup entirely.
func openStore() (*store.SQLiteStore, error) {
	if dbPath := os.Getenv("SEANCE_DB"); dbPath != "" {
		return store.NewSQLiteStore(dbPath)
	}

	configPath := os.Getenv("SEANCE_CONFIG")
	if configPath == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolving home directory: %w", err)
			}
			configDir = filepath.Join(homeDir, ".config")
		}
		configPath = filepath.Join(configDir, "seance", "config.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

func cmdMappings(args []string) error {
	limit := 50
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mappings, err := st.ListSessionMappings(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(mappings) == 0 {
		color.Yellow("No session mappings found\n")
		return nil
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("%d session mapping(s)\n\n", len(mappings))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONVERSATION\tSESSION\tCREATED")
	for _, m := range mappings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ConversationID, m.SessionID, m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func cmdExchanges(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: seance-admin exchanges <conversation-id>")
	}
	conversationID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	exchanges, err := st.ListExchanges(context.Background(), conversationID, 100)
	if err != nil {
		return err
	}

	if len(exchanges) == 0 {
		color.Yellow("No exchanges recorded for %s\n", conversationID)
		return nil
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	for _, ex := range exchanges {
		cyan.Printf("── %s  (run %s)\n", ex.CreatedAt.Format("2006-01-02 15:04:05"), ex.RunID)
		green.Print("  » ")
		fmt.Println(ex.Prompt)
		fmt.Printf("  %s\n\n", ex.Reply)
	}
	return nil
}
