package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"inv/internal/auth"
	"inv/internal/client"
	"inv/internal/config"
	"inv/internal/devserver"
	"inv/internal/form"
	"inv/internal/logging"
	"inv/internal/tui"
	"inv/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	BaseURL string // overrides INV_API_BASE_URL when set
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	if opt.BaseURL != "" {
		cfg.API.BaseURL = opt.BaseURL
	}

	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(cfg)

	case "get":
		if len(a) != 1 {
			ui.Fail("usage: inv get <item-id>")
			return 2
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			ui.Fail("get: not a number: " + a[0])
			return 2
		}
		return doGet(cfg, id)

	case "add":
		if len(a) != 4 {
			ui.Fail("usage: inv add <name> <description> <quantity> <price>")
			return 2
		}
		return doAdd(cfg, a[0], a[1], a[2], a[3])

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: inv rm <item-id>")
			return 2
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return doRemove(cfg, id)

	case "qty":
		if len(a) != 2 {
			ui.Fail("usage: inv qty <item-id> <quantity>")
			return 2
		}
		id, err := strconv.ParseInt(a[0], 10, 64)
		if err != nil {
			ui.Fail("qty: not a number: " + a[0])
			return 2
		}
		n, err := strconv.ParseInt(a[1], 10, 64)
		if err != nil {
			ui.Fail("qty: not a number: " + a[1])
			return 2
		}
		return doQuantity(cfg, id, n)

	case "serve":
		return doServe(cfg)

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: inv auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin()
		case "logout":
			return doAuthLogout()
		case "status":
			return doAuthStatus()
		default:
			ui.Fail("usage: inv auth <login|logout|status>")
			return 2
		}
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`inv - inventory client for the item service

Usage:
  inv [-api <url>] <subcommand> [args]

Subcommands:
  ls                                     Browse items (interactive TUI)
  get <item-id>                          Show a single item
  add <name> <description> <qty> <price> Create a new item
  rm <item-id>                           Delete an item (asks first)
  qty <item-id> <quantity>               Set an item's quantity
  serve                                  Run a local development item service
  auth <login|logout|status>             Token authentication

Examples:
  inv add "MacBook Pro" "Laptop" 3 1999.99
  inv ls
  inv qty 2 5
  inv rm 3
`)
}

// ---------------------------------------------------
// Wiring
// ---------------------------------------------------

func newClient(cfg *config.Config) (*client.Client, error) {
	log, err := logging.New(cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	opts := []client.Option{client.WithLogger(log)}
	if ti, _ := auth.GetToken(); ti != nil && strings.TrimSpace(ti.Token) != "" {
		opts = append(opts, client.WithToken(ti.Token))
	}
	return client.New(cfg.API.BaseURL, cfg.API.Timeout, opts...), nil
}

// ---------------------------------------------------
// Core subcommands
// ---------------------------------------------------

func doList(cfg *config.Config) int {
	c, err := newClient(cfg)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if err := tui.Run(c, cfg.View.PageSize); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doGet(cfg *config.Config, id int64) int {
	c, err := newClient(cfg)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	item, err := c.GetItem(context.Background(), id)
	if err != nil {
		ui.Fail("get: " + err.Error())
		return 1
	}
	ui.Panel([]string{
		ui.Title.Render(fmt.Sprintf("Item %d", item.ItemID)),
		"Name:        " + item.Name,
		"Description: " + item.Description,
		"Quantity:    " + strconv.FormatInt(item.Quantity, 10),
		"Price:       " + strconv.FormatFloat(item.Price, 'f', 2, 64),
	})
	return 0
}

func doAdd(cfg *config.Config, name, description, quantity, price string) int {
	c, err := newClient(cfg)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	f := form.New()
	f.SetField(form.FieldName, name)
	f.SetField(form.FieldDescription, description)
	f.SetField(form.FieldQuantity, quantity)
	f.SetField(form.FieldPrice, price)

	item, err := f.Submit(context.Background(), c)
	if err != nil {
		var verrs form.Errors
		if errors.As(err, &verrs) {
			for _, field := range form.Fields {
				if msg, ok := verrs[field]; ok {
					ui.Fail(field + ": " + msg)
				}
			}
			return 2
		}
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("added item %d", item.ItemID))
	return 0
}

func doRemove(cfg *config.Config, id int64) int {
	c, err := newClient(cfg)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	fmt.Printf("Delete item %d? You won't be able to revert this. [y/N]: ", id)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		fmt.Println(ui.Muted.Render("aborted"))
		return 0
	}

	if err := c.DeleteItem(context.Background(), id); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("deleted item %d", id))
	return 0
}

func doQuantity(cfg *config.Config, id, quantity int64) int {
	if quantity < 0 {
		// Rejected locally; no request is made.
		ui.Fail("qty: quantity cannot be negative")
		return 2
	}
	c, err := newClient(cfg)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	ctx := context.Background()
	item, err := c.GetItem(ctx, id)
	if err != nil {
		ui.Fail("qty: " + err.Error())
		return 1
	}
	payload := item.Payload()
	payload.Quantity = quantity
	updated, err := c.UpdateItem(ctx, id, payload)
	if err != nil {
		ui.Fail("qty: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("item %d quantity is now %d", updated.ItemID, updated.Quantity))
	return 0
}

func doServe(cfg *config.Config) int {
	log, err := logging.New(cfg.Log.File)
	if err != nil {
		ui.Fail("logger: " + err.Error())
		return 1
	}
	repo := devserver.NewFileRepository(cfg.Serve.Data)
	srv := devserver.New(repo, log)

	ui.OK("item service listening on " + cfg.Serve.Addr)
	fmt.Println(ui.Muted.Render("data file: " + cfg.Serve.Data))
	if err := http.ListenAndServe(cfg.Serve.Addr, srv.Router()); err != nil {
		ui.Fail("serve: " + err.Error())
		return 1
	}
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func doAuthLogin() int {
	fmt.Print("Paste your token: ")
	var token string
	if _, err := fmt.Scanln(&token); err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	if err := auth.SetToken(token, nil); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout() int {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := auth.DeleteToken(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus() int {
	ti, _ := auth.GetToken()
	if ti == nil {
		fmt.Println(ui.Muted.Render("not logged in"))
		fmt.Println("Run: inv auth login")
		return 0
	}
	fmt.Printf("source: %s\n", ti.Source)
	fmt.Println("env override: " + auth.EnvToken)
	return 0
}
