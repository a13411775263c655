package commands

import (
	"context"
	"flag"
	"fmt"
	"html"
	"os"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/elements"
	"github.com/funnelforge/funnelforge/internal/storage"
)

// RenderCommand implements the render command: it exports one page as a
// static HTML file.
func RenderCommand(args []string) error {
	flagSet := flag.NewFlagSet("render", flag.ContinueOnError)
	output := flagSet.String("o", "", "Output file (defaults to stdout)")
	device := flagSet.String("device", "desktop", "Device to render for: desktop, tablet, mobile")

	flagSet.Usage = func() {
		fmt.Println("Usage: funnelforge render [options] <page-id> [directory]")
		fmt.Println()
		fmt.Println("Render a stored page to static HTML.")
		fmt.Println()
		fmt.Println("Options:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() < 1 {
		flagSet.Usage()
		return fmt.Errorf("page id is required")
	}

	pageID := flagSet.Arg(0)
	dir := "."
	if flagSet.NArg() > 1 {
		dir = flagSet.Arg(1)
	}

	d := funnelforge.Device(*device)
	switch d {
	case funnelforge.DeviceDesktop, funnelforge.DeviceTablet, funnelforge.DeviceMobile:
	default:
		return fmt.Errorf("unknown device %q", *device)
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

	doc, err := store.Load(context.Background(), pageID)
	if err != nil {
		return fmt.Errorf("failed to load page %q: %w", pageID, err)
	}

	reg := funnelforge.NewRegistry()
	elements.RegisterAll(reg)

	renderer := funnelforge.NewRenderer(reg, funnelforge.ModeLive)
	body := renderer.RenderDocument(doc, d)

	title := cfg.Title
	if title == "" {
		title = pageID
	}
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`, html.EscapeString(title), body)

	if *output == "" {
		fmt.Print(page)
		return nil
	}
	if err := os.WriteFile(*output, []byte(page), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}
	fmt.Printf("Rendered %s to %s\n", pageID, *output)
	return nil
}
