// Command storefront is an interactive shell over the client-side sync
// layer: it loads the catalog and cart, runs debounced search and the
// add-to-cart flow against a storefront backend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/infra/api"
	"example.com/storefront/internal/infra/config"
	infrasession "example.com/storefront/internal/infra/session"
	"example.com/storefront/internal/usecase/cartops"
	"example.com/storefront/internal/usecase/storefront"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	carts := api.NewCartClient(cfg.Endpoint, hc, log)
	state := storefront.New(storefront.Config{
		Catalog:       api.NewCatalogClient(cfg.Endpoint, hc, log),
		Carts:         carts,
		Mutator:       cartops.NewService(carts, log),
		Auth:          api.NewAuthClient(cfg.Endpoint, hc, log),
		Sessions:      infrasession.NewMemoryStore(),
		DebounceDelay: cfg.DebounceDelay,
		Logger:        log,
	})
	defer state.Close()

	ctx := context.Background()

	// The subscription drives all rendering; commands only trigger
	// transitions, mirroring a reactive UI.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range state.Subscribe() {
			render(snap)
		}
	}()

	if err := state.Load(ctx); err != nil {
		log.Warn("initial load incomplete", slog.String("error", err.Error()))
	}

	fmt.Println(`commands: products | search <text> | add <id> [qty] | qty <id> <n> | cart | register <user> <pass> | login <user> <pass> | logout | quit`)

	sc := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); sc.Scan(); fmt.Print("> ") {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			state.Close()
			<-done
			return
		case "products":
			_ = state.Load(ctx)
		case "search":
			state.QueryInput(ctx, strings.Join(fields[1:], " "))
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <id> [qty]")
				continue
			}
			qty := int64(1)
			if len(fields) > 2 {
				qty, _ = strconv.ParseInt(fields[2], 10, 64)
			}
			_ = state.Add(ctx, fields[1], qty, cartops.Options{PreventDuplicate: true})
		case "qty":
			if len(fields) < 3 {
				fmt.Println("usage: qty <id> <n>")
				continue
			}
			n, _ := strconv.ParseInt(fields[2], 10, 64)
			_ = state.Add(ctx, fields[1], n, cartops.Options{})
		case "cart":
			render(state.Snapshot())
		case "register":
			if len(fields) < 3 {
				fmt.Println("usage: register <user> <pass>")
				continue
			}
			_ = state.Register(ctx, session.RegisterInput{
				Username: fields[1], Password: fields[2], ConfirmPassword: fields[2],
			})
		case "login":
			if len(fields) < 3 {
				fmt.Println("usage: login <user> <pass>")
				continue
			}
			_ = state.Login(ctx, session.LoginInput{Username: fields[1], Password: fields[2]})
		case "logout":
			state.Logout()
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
	state.Close()
	<-done
}

func render(snap storefront.Snapshot) {
	for _, n := range snap.Notices {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}

	if snap.CatalogUnavailable {
		fmt.Println("catalog unavailable")
	} else if len(snap.Products) == 0 {
		fmt.Println("no products found")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCOST\tRATING")
		for _, p := range snap.Products {
			fmt.Fprintf(w, "%s\t%s\t%s\t$%.0f\t%.0f/5\n", p.ID, p.Name, p.Category, p.Cost, p.Rating)
		}
		w.Flush()
	}

	if snap.Session.LoggedIn() {
		fmt.Printf("cart (%s):\n", snap.Session.Username)
		if len(snap.CartItems) == 0 {
			fmt.Println("  empty")
		}
		for _, item := range snap.CartItems {
			name := item.Name
			if item.Missing {
				name = "(unknown product)"
			}
			fmt.Printf("  %s x%d  %s\n", item.ProductID, item.Qty, name)
		}
	}
}
