package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hnreader/hnfav/internal/config"
	"github.com/hnreader/hnfav/internal/db"
	"github.com/hnreader/hnfav/internal/errors"
	"github.com/hnreader/hnfav/internal/export"
	"github.com/hnreader/hnfav/internal/item"
	"github.com/hnreader/hnfav/internal/mcp"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config, exportDir string) *cli.App {
	app := &cli.App{
		Name:    "hnfav",
		Usage:   "Saved-story collection and export",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(database),
			removeCmd(database),
			listCmd(database),
			checkCmd(database),
			clearCmd(database),
			exportCmd(database, cfg, exportDir),
			serveCmd(database, cfg, exportDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Save an item to the favorites collection",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Item URL"},
			&cli.StringFlag{Name: "id", Usage: "Item id (generated when omitted)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Item title"},
			&cli.Int64Flag{Name: "saved-at", Usage: "Save time as epoch seconds (defaults to now)"},
		},
		Action: func(c *cli.Context) error {
			url := strings.TrimSpace(c.String("url"))
			if url == "" {
				return outputError(errors.NewInvalidRequest("url is required"))
			}

			id := strings.TrimSpace(c.String("id"))
			if id == "" {
				var err error
				id, err = item.NewID()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			savedAt := time.Now().Unix()
			if c.IsSet("saved-at") {
				savedAt = c.Int64("saved-at")
			}

			it := item.Item{ID: id, URL: url, Title: c.String("title"), SavedAt: savedAt}
			if err := db.Insert(database, it); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"id":       it.ID,
				"url":      it.URL,
				"title":    it.Title,
				"saved_at": it.SavedAt,
			})
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove saved items by id",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			ids := c.Args().Slice()
			if len(ids) == 0 {
				return outputError(errors.NewInvalidRequest("at least one id is required"))
			}

			removed, err := db.DeleteByIDs(database, ids)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"removed": removed})
		},
	}
}

// listCmd creates the list command.
func listCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved items, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Title substring filter"},
		},
		Action: func(c *cli.Context) error {
			rs, err := db.QueryByTitle(database, c.String("filter"))
			if err != nil {
				return outputError(err)
			}
			defer rs.Close()

			items, err := rs.Items()
			if err != nil {
				return outputError(err)
			}

			out := make([]map[string]any, 0, len(items))
			for _, it := range items {
				out = append(out, map[string]any{
					"id":       it.ID,
					"title":    it.Title,
					"url":      it.URL,
					"hn_url":   it.DiscussionURL(),
					"saved_at": it.SavedAt,
				})
			}

			return outputJSON(map[string]any{"items": out, "total": len(out)})
		},
	}
}

// checkCmd creates the check command.
func checkCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check whether an item id is saved",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one id is required"))
			}
			id := c.Args().First()

			saved, err := db.Exists(database, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"id": id, "favorite": saved})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove all saved items, or only those matching a title filter",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Title substring filter"},
		},
		Action: func(c *cli.Context) error {
			var removed int
			var err error
			if filter := c.String("filter"); filter != "" {
				removed, err = db.DeleteByTitle(database, filter)
			} else {
				removed, err = db.DeleteAll(database)
			}
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"removed": removed})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(database *sql.DB, cfg *config.Config, exportDir string) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export saved items into a document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "csv", Usage: "Document format: csv|txt|html|md|json"},
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Title substring filter"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write the document to this file instead of the export directory"},
			&cli.BoolFlag{Name: "all", Usage: "Export every format into the export directory"},
		},
		Action: func(c *cli.Context) error {
			o := export.New(database, cfg, exportDir, nil, nil, nil)

			if c.Bool("all") {
				refs, err := o.ExportAll(c.String("filter"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]any{"files": refs})
			}

			format, err := export.ParseFormat(c.String("format"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			if path := c.String("out"); path != "" {
				dst, err := os.Create(path)
				if err != nil {
					return outputError(errors.NewDeliveryFailed(err))
				}
				if err := o.ExportNowTo(c.String("filter"), format, dst); err != nil {
					dst.Close()
					return outputError(err)
				}
				if err := dst.Close(); err != nil {
					return outputError(errors.NewDeliveryFailed(err))
				}
				return outputJSON(map[string]any{"file": path, "format": string(format)})
			}

			ref, err := o.ExportNow(c.String("filter"), format)
			if err != nil {
				return outputError(err)
			}
			// Let the downloads promotion and share action finish before exit.
			o.Wait()

			return outputJSON(map[string]any{"file": ref, "format": string(format)})
		},
	}
}

// serveCmd creates the serve command, which runs the MCP server even on a
// terminal (the no-argument default requires piped stdin).
func serveCmd(database *sql.DB, cfg *config.Config, exportDir string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(database, cfg, exportDir, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if favErr, ok := err.(*errors.FavError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", favErr.Code, favErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
