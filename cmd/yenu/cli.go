package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yenulab/yenu/internal/assets"
	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/errors"
	"github.com/yenulab/yenu/internal/mcp"
	"github.com/yenulab/yenu/internal/recipe"
	"github.com/yenulab/yenu/internal/store"
	"github.com/yenulab/yenu/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, as *assets.Assets, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "yenu",
		Usage:   "Self-hosted recipe manager",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(st, as, cfg),
			mcpCmd(st, cfg),
			searchCmd(st),
			getCmd(st),
			createCmd(st),
			updateCmd(st),
			deleteCmd(st),
			exportCmd(st),
			importCmd(st),
			backupCmd(st),
			seedCmd(st),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(st *store.Store, as *assets.Assets, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8411, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(st, as, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(st, cfg, Version)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search recipes",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Exact tag match"},
			&cli.StringFlag{Name: "ingredient", Aliases: []string{"i"}, Usage: "Ingredient name substring"},
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
			&cli.IntFlag{Name: "page-size", Value: store.DefaultPageSize, Usage: "Results per page"},
		},
		Action: func(c *cli.Context) error {
			output, err := st.Search(store.SearchInput{
				Query:      c.Args().First(),
				Tag:        c.String("tag"),
				Ingredient: c.String("ingredient"),
				Page:       c.Int("page"),
				PageSize:   c.Int("page-size"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch one recipe by slug",
		ArgsUsage: "<slug>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewValidation("slug", "exactly one slug argument is required"))
			}
			slug := c.Args().First()
			rec, err := st.Read(slug)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(store.ExportRecord{Slug: slug, Recipe: *rec})
		},
	}
}

// createCmd creates the create command.
func createCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a recipe from a YAML record piped via stdin",
		Action: func(c *cli.Context) error {
			rec, err := readRecordStdin()
			if err != nil {
				return outputError(err)
			}
			slug, err := st.Create(rec)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"slug": slug})
		},
	}
}

// updateCmd creates the update command.
func updateCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace a recipe with a YAML record piped via stdin",
		ArgsUsage: "<slug>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewValidation("slug", "exactly one slug argument is required"))
			}
			rec, err := readRecordStdin()
			if err != nil {
				return outputError(err)
			}
			slug, err := st.Update(c.Args().First(), rec)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"slug": slug})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one or more recipes and their images",
		ArgsUsage: "<slug> [<slug>...]",
		Action: func(c *cli.Context) error {
			switch c.NArg() {
			case 0:
				return outputError(errors.NewValidation("slug", "at least one slug argument is required"))
			case 1:
				slug := c.Args().First()
				if err := st.Delete(slug); err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]any{"deleted": true, "slug": slug})
			default:
				result, err := st.DeleteMany(c.Args().Slice())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(result)
			}
		},
	}
}

// exportCmd creates the export command.
func exportCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write all recipes as JSON to stdout",
		Action: func(c *cli.Context) error {
			data, err := st.ExportJSON()
			if err != nil {
				return outputError(err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

// importCmd creates the import command.
func importCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import recipes from JSON piped via stdin",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewValidation("payload", "JSON must be piped via stdin"))
			}
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			result, err := st.ImportJSON(data)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// backupCmd creates the backup command.
func backupCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "backup",
		Usage:     "Write a zip archive of the record directory",
		ArgsUsage: "<file.zip>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewValidation("file", "exactly one output file argument is required"))
			}
			data, err := st.BackupZip()
			if err != nil {
				return outputError(err)
			}
			out := c.Args().First()
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{"file": out, "bytes": len(data)})
		},
	}
}

// readRecordStdin reads and validates a YAML recipe record from stdin.
func readRecordStdin() (*recipe.Recipe, error) {
	if !stdinHasData() {
		return nil, errors.NewValidation("record", "a YAML record must be piped via stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewValidation("record", "the record must not be empty")
	}
	rec, err := recipe.Decode(data)
	if err != nil {
		if _, ok := err.(*errors.Error); ok {
			return nil, err
		}
		return nil, errors.NewValidation("record", "invalid YAML: "+err.Error())
	}
	return rec, nil
}

// outputJSON formats output as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if yErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", yErr.Code, yErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
