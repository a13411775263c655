// Command funnelforge is the CLI for building and serving funnel pages.
package main

import (
	"fmt"
	"os"

	"github.com/funnelforge/funnelforge/cmd/funnelforge/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args)
	case "new":
		err = commands.NewCommand(args)
	case "validate":
		err = commands.ValidateCommand(args)
	case "render":
		err = commands.RenderCommand(args)
	case "version":
		fmt.Printf("funnelforge version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("funnelforge - Visual page builder and server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  funnelforge serve [directory]          Start the editor and storefront server")
	fmt.Println("  funnelforge new <name>                 Create a new site directory")
	fmt.Println("  funnelforge validate [directory]       Validate stored page documents")
	fmt.Println("  funnelforge render <page> [directory]  Render a page to static HTML")
	fmt.Println("  funnelforge version                    Show version")
	fmt.Println("  funnelforge help                       Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  funnelforge serve                      # Serve current directory")
	fmt.Println("  funnelforge serve ./mysite --watch     # Serve with live reload")
	fmt.Println("  funnelforge serve --port 3000          # Serve on a custom port")
	fmt.Println("  funnelforge new launch-page            # Scaffold a new site")
	fmt.Println("  funnelforge validate ./mysite          # Check every page")
	fmt.Println("  funnelforge render home -o home.html   # Export the home page")
}
