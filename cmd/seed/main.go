// Command seed loads invitations from a CSV file into the SQL store.
//
// Usage:
//
//	seed invites.csv
//
// Rows are positional: id, name, max party size, comma-separated sub-event
// keys. A leading header row is skipped. Existing ids are replaced.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/AlexTLDR/guestlist/internal/config"
	"github.com/AlexTLDR/guestlist/internal/database"
	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: seed <invites.csv>")
		os.Exit(2)
	}

	if err := godotenv.Overload(); err != nil {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	driver, dsn := database.DriverSQLite, database.SQLiteDSN(cfg.DatabasePath)
	switch cfg.StoreBackend {
	case config.BackendSQLite:
	case config.BackendPostgres:
		driver, dsn = database.DriverPostgres, cfg.DatabaseURL
	default:
		log.Fatalf("seed only supports the sqlite and postgres backends, got %q", cfg.StoreBackend)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, driver, dsn, 3, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, nil); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to open %s: %v", os.Args[1], err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", os.Args[1], err)
	}

	fmt.Printf("Found %d invitations to load\n", len(rows))

	loaded := 0
	failed := 0
	for i, row := range rows {
		inv, err := rsvp.ParseInvitationRow(row)
		if err != nil {
			log.Printf("Skipping row %d: %v", i+1, err)
			failed++
			continue
		}

		err = db.UpsertInvitation(ctx, database.Invitation{
			InviteID:      inv.InviteID,
			ExactName:     inv.ExactName,
			MaxPartySize:  cellAt(row, 2),
			AllowedEvents: cellAt(row, 3),
		})
		if err != nil {
			log.Printf("Failed to save %s: %v", inv.InviteID, err)
			failed++
			continue
		}
		fmt.Printf("Loaded %s: %q (max %d, %s)\n", inv.InviteID, inv.ExactName, inv.MaxPartySize,
			strings.Join(inv.AllowedSubEvents, ","))
		loaded++
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total: %d\n", len(rows))
	fmt.Printf("  Loaded: %d\n", loaded)
	fmt.Printf("  Failed: %d\n", failed)
}

// readRows reads every CSV record, dropping a leading header row.
func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}

	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}

func isHeader(row []string) bool {
	switch strings.ToLower(strings.TrimSpace(cellAt(row, 0))) {
	case "id", "invite_id", "inviteid", "invite id":
		return true
	}
	return false
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
