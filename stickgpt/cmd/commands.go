package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/sources"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/color"
	"stickgpt/stickgpt/utils/jsonutils"
	"stickgpt/stickgpt/utils/metrics"
)

const usage = `stickgpt CLI usage:
  stickgpt [--json] [--no-color] chats <user> [term]   # list a user's chats, newest first
  stickgpt [--json] [--no-color] chat <user> <id>      # show one chat with its messages
  stickgpt [--json] [--no-color] bookmarks <user>      # list a user's bookmarks
  stickgpt [--json] [--no-color] memories <user> [type]
  stickgpt [--json] [--no-color] context <user> [limit]
  stickgpt [--json] [--no-color] queries <user>        # recent search queries
  stickgpt clear <user> <chats|queries|all>
`

var errUsage = errors.New("invalid arguments")

type cli struct {
	chats     *controllers.ChatController
	bookmarks *controllers.BookmarksController
	memory    *controllers.MemoryController
	queries   *controllers.QueriesController
	out       io.Writer
	asJSON    bool
}

func newCLI(backend *sources.Backend, out io.Writer) *cli {
	set := stores.NewSet(backend)
	noop := metrics.NewNoopCollector()
	return &cli{
		chats:     controllers.NewChatController(set.Chats, noop),
		bookmarks: controllers.NewBookmarksController(set.Bookmarks, noop),
		memory:    controllers.NewMemoryController(set.Memory, noop),
		queries:   controllers.NewQueriesController(set.Queries, noop),
		out:       out,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stickgpt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	asJSON := fs.Bool("json", false, "print JSON")
	noColor := fs.Bool("no-color", false, "disable colors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.asJSON = *asJSON
	if *noColor {
		color.Disable()
	}

	args = fs.Args()
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "chats":
		if len(rest) < 1 {
			return errUsage
		}
		if len(rest) > 1 {
			return c.printChats(c.chats.SearchChats(ctx, rest[0], strings.Join(rest[1:], " ")))
		}
		return c.printChats(c.chats.GetAllChats(ctx, rest[0]))
	case "chat":
		if len(rest) != 2 {
			return errUsage
		}
		chat := c.chats.GetChat(ctx, rest[0], rest[1])
		if chat == nil {
			return fmt.Errorf("chat %s not found", rest[1])
		}
		return c.printChat(*chat)
	case "bookmarks":
		if len(rest) != 1 {
			return errUsage
		}
		return c.printBookmarks(c.bookmarks.GetBookmarks(ctx, rest[0]))
	case "memories":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		if len(rest) == 2 {
			memoryType := models.MemoryType(rest[1])
			if !memoryType.Valid() {
				return fmt.Errorf("unknown memory type %q", rest[1])
			}
			return c.printMemories(c.memory.GetUserMemoriesByType(ctx, rest[0], memoryType))
		}
		return c.printMemories(c.memory.GetAllUserMemories(ctx, rest[0]))
	case "context":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		limit := stores.DefaultContextLimit
		if len(rest) == 2 {
			n, err := strconv.Atoi(rest[1])
			if err != nil {
				return fmt.Errorf("limit: %w", err)
			}
			limit = n
		}
		text := c.memory.GetUserContextForAI(ctx, rest[0], limit)
		if c.asJSON {
			return c.printJSON(map[string]string{"context": text})
		}
		_, err := fmt.Fprintln(c.out, text)
		return err
	case "queries":
		if len(rest) != 1 {
			return errUsage
		}
		queries := c.queries.GetRecentQueries(ctx, rest[0])
		if c.asJSON {
			return c.printJSON(queries)
		}
		for i, q := range queries {
			fmt.Fprintf(c.out, "%2d. %s\n", i+1, q)
		}
		return nil
	case "clear":
		if len(rest) != 2 {
			return errUsage
		}
		return c.clear(ctx, rest[0], rest[1])
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (c *cli) clear(ctx context.Context, userID, what string) error {
	switch what {
	case "chats":
		c.chats.ClearAllChats(ctx, userID)
	case "queries":
		c.queries.ClearRecentQueries(ctx, userID)
	case "all":
		c.chats.ClearAllChats(ctx, userID)
		c.queries.ClearRecentQueries(ctx, userID)
	default:
		return errUsage
	}
	_, err := fmt.Fprintln(c.out, color.ColorInfo("cleared "+what))
	return err
}

func (c *cli) printJSON(v any) error {
	_, err := fmt.Fprintln(c.out, jsonutils.ToJSON(v))
	return err
}

func (c *cli) printChats(chats []models.Chat) error {
	if c.asJSON {
		return c.printJSON(chats)
	}
	if len(chats) == 0 {
		fmt.Fprintln(c.out, color.ColorMuted("no chats"))
		return nil
	}
	for _, chat := range chats {
		fmt.Fprintf(c.out, "%s  %s  %s\n",
			color.ColorHeader(chat.ID),
			chat.Title,
			color.ColorMuted(fmt.Sprintf("%d messages, updated %s", len(chat.Messages), chat.UpdatedAt.Format("2006-01-02 15:04"))),
		)
	}
	return nil
}

func (c *cli) printChat(chat models.Chat) error {
	if c.asJSON {
		return c.printJSON(chat)
	}
	fmt.Fprintf(c.out, "%s  %s\n", color.ColorHeader(chat.Title), color.ColorMuted(chat.ID))
	for _, m := range chat.Messages {
		fmt.Fprintf(c.out, "[%s] %s\n", color.ColorRole(m.Role), m.Content)
	}
	return nil
}

func (c *cli) printBookmarks(bookmarks []models.Bookmark) error {
	if c.asJSON {
		return c.printJSON(bookmarks)
	}
	for _, b := range bookmarks {
		fmt.Fprintf(c.out, "%s  %s  %s\n",
			color.ColorHeader(b.MessageID),
			jsonutils.Preview(b.Content, 60),
			color.ColorMuted("chat "+b.ChatID),
		)
	}
	return nil
}

func (c *cli) printMemories(memories []models.UserMemory) error {
	if c.asJSON {
		return c.printJSON(memories)
	}
	for _, m := range memories {
		fmt.Fprintf(c.out, "[%s] %s: %s\n",
			color.ColorWarning(string(m.MemoryType)),
			color.ColorHeader(m.Key),
			jsonutils.Preview(jsonutils.ToJSON(m.Value), 80),
		)
	}
	return nil
}
