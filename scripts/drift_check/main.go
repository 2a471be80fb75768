package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
	"github.com/vinceyvincey/google-calendar-sync/internal/notion"
	"github.com/vinceyvincey/google-calendar-sync/internal/repository"
	"github.com/vinceyvincey/google-calendar-sync/pkg/config"
	"github.com/vinceyvincey/google-calendar-sync/pkg/database"
)

// Read-only drift report between the events table and the Notion database.
// Classifies what a reconciliation pass would create, update, and archive
// without mutating anything, and exits non-zero when membership drift exists.

type report struct {
	Create  []string
	Update  []string
	Archive []string
	Orphans int
}

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "verbose", false, "list every drifted event ID instead of counts only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	client := notion.NewClient(notion.ClientOptions{
		BaseURL:    cfg.Notion.BaseURL,
		APIKey:     cfg.Notion.APIKey,
		APIVersion: cfg.Notion.Version,
		DatabaseID: cfg.Notion.DatabaseID,
		HTTPClient: &http.Client{Timeout: cfg.Notion.Timeout},
		MaxRetries: cfg.Notion.MaxRetries,
	})

	ctx := context.Background()

	events, err := repository.NewEventRepository(db).List(ctx)
	if err != nil {
		log.Fatalf("failed to list events: %v", err)
	}

	rep, err := classify(ctx, client, events, cfg.Sync.PageSize)
	if err != nil {
		log.Fatalf("failed to query notion pages: %v", err)
	}

	printReport(rep, verbose)

	if len(rep.Create) > 0 || len(rep.Archive) > 0 {
		os.Exit(1)
	}
}

func classify(ctx context.Context, client *notion.Client, events []models.Event, pageSize int) (report, error) {
	pageIDs := make(map[string]struct{})
	var rep report

	cursor := ""
	for {
		result, err := client.QueryPages(ctx, cursor, pageSize)
		if err != nil {
			return report{}, err
		}
		for _, page := range result.Pages {
			eventID := page.RichTextContent(notion.PropEventID)
			if eventID == "" {
				rep.Orphans++
				continue
			}
			pageIDs[eventID] = struct{}{}
		}
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	for _, event := range events {
		if _, ok := pageIDs[event.EventID]; ok {
			rep.Update = append(rep.Update, event.EventID)
			delete(pageIDs, event.EventID)
		} else {
			rep.Create = append(rep.Create, event.EventID)
		}
	}
	for eventID := range pageIDs {
		rep.Archive = append(rep.Archive, eventID)
	}

	sort.Strings(rep.Create)
	sort.Strings(rep.Update)
	sort.Strings(rep.Archive)

	return rep, nil
}

func printReport(rep report, verbose bool) {
	fmt.Println("Drift Report")
	fmt.Println("============")
	fmt.Printf("Would create:  %d\n", len(rep.Create))
	fmt.Printf("Would update:  %d\n", len(rep.Update))
	fmt.Printf("Would archive: %d\n", len(rep.Archive))
	fmt.Printf("Orphan pages:  %d (no Event ID, never touched)\n", rep.Orphans)

	if !verbose {
		return
	}
	printIDs("create", rep.Create)
	printIDs("archive", rep.Archive)
}

func printIDs(action string, ids []string) {
	for _, id := range ids {
		fmt.Printf("  [%s] %s\n", action, id)
	}
}
