package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/storage"
)

// ValidateCommand implements the validate command: it checks every stored
// page document for structural problems.
func ValidateCommand(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	cfg, err := loadSiteConfig(dir)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("No pages found.")
		return nil
	}

	totalProblems := 0
	for _, id := range ids {
		doc, err := store.Load(ctx, id)
		if err != nil {
			fmt.Printf("✗ %s: failed to load: %v\n", id, err)
			totalProblems++
			continue
		}

		problems := funnelforge.Validate(doc)
		if len(problems) == 0 {
			fmt.Printf("✓ %s\n", id)
			continue
		}

		fmt.Printf("✗ %s: %d problem(s)\n", id, len(problems))
		for _, p := range problems {
			fmt.Printf("    %s\n", p.Error())
		}
		totalProblems += len(problems)
	}

	fmt.Println()
	if totalProblems > 0 {
		return fmt.Errorf("validation failed: %d problem(s) across %d page(s)", totalProblems, len(ids))
	}
	fmt.Printf("All %d page(s) valid.\n", len(ids))
	return nil
}
