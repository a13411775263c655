package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/config"
)

// NewCommand implements the new command: it scaffolds a site directory
// with a config file and a starter home page.
func NewCommand(args []string) error {
	flagSet := flag.NewFlagSet("new", flag.ContinueOnError)
	title := flagSet.String("title", "", "Site title (defaults to the project name)")

	flagSet.Usage = func() {
		fmt.Println("Usage: funnelforge new [options] <project-name>")
		fmt.Println()
		fmt.Println("Create a new funnelforge site directory.")
		fmt.Println()
		fmt.Println("Options:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("project name is required")
	}

	name := flagSet.Arg(0)
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory already exists: %s", name)
	}

	siteTitle := *title
	if siteTitle == "" {
		siteTitle = name
	}

	pagesDir := filepath.Join(name, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", pagesDir, err)
	}

	cfgYAML := fmt.Sprintf(`title: %q

server:
  host: 127.0.0.1
  port: 8090

store:
  type: file
  dir: ./pages

watch: true
`, siteTitle)
	if err := os.WriteFile(filepath.Join(name, config.ConfigFileName), []byte(cfgYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	doc := starterDocument(siteTitle)
	doc = funnelforge.EnsureAnchors(doc, funnelforge.DefaultIDGenerator)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode starter page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(pagesDir, "home.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write starter page: %w", err)
	}

	fmt.Printf("Created %s/\n", name)
	fmt.Printf("  %s\n", config.ConfigFileName)
	fmt.Printf("  pages/home.json\n")
	fmt.Println()
	fmt.Printf("Next: cd %s && funnelforge serve\n", name)
	return nil
}

func starterDocument(title string) *funnelforge.Document {
	gen := funnelforge.DefaultIDGenerator
	return &funnelforge.Document{
		Sections: []funnelforge.Section{
			{
				ID:    "sec-" + gen(8),
				Width: funnelforge.SectionMedium,
				Rows: []funnelforge.Row{
					{
						ID:           "row-" + gen(8),
						ColumnLayout: "1",
						Columns: []funnelforge.Column{
							{
								ID:    "col-" + gen(8),
								Width: 12,
								Elements: []funnelforge.Element{
									{
										ID:   "el-" + gen(8),
										Type: "heading",
										Content: map[string]any{
											"text": title,
											"tag":  "h1",
										},
									},
									{
										ID:   "el-" + gen(8),
										Type: "text",
										Content: map[string]any{
											"text": "Welcome to your new page. Open the editor to start building.",
										},
									},
									{
										ID:      "el-" + gen(8),
										Type:    "button",
										Content: funnelforge.DefaultContent("button"),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
