// Command storefront is a small interactive client for the cart engine. It
// keeps a local cart, mirrors it to the cart service while logged in, and
// shows the derived totals a storefront UI would render.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"conecart/internal/cartsync"
	"conecart/internal/config"
	"conecart/internal/domain"
)

type app struct {
	cart    *cartsync.Cart
	session *cartsync.Session
	gateway *cartsync.HTTPGateway
	baseURL string
	client  *http.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gateway := cartsync.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	session := cartsync.NewSession()
	cart := cartsync.NewCart(gateway, session, cfg.Gateway.Timeout)

	a := &app{
		cart:    cart,
		session: session,
		gateway: gateway,
		baseURL: strings.TrimRight(cfg.Gateway.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Gateway.Timeout},
	}

	fmt.Println("conecart storefront. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		a.run(strings.Fields(line))
	}

	// let trailing pushes land before the process goes away
	cart.Wait()
}

func (a *app) run(args []string) {
	switch args[0] {
	case "help":
		printHelp()

	case "add":
		if len(args) < 4 {
			fmt.Println("usage: add <productId> <name> <priceCents> [qty]")
			return
		}
		price, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil || price < 0 {
			fmt.Println("priceCents must be a non-negative integer")
			return
		}
		qty := 1
		if len(args) > 4 {
			qty, _ = strconv.Atoi(args[4])
		}
		a.cart.AddItem(domain.CartItem{
			ProductID:  args[1],
			Name:       args[2],
			PriceCents: price,
			Quantity:   qty,
		})

	case "rm":
		if len(args) < 2 {
			fmt.Println("usage: rm <productId>")
			return
		}
		a.cart.RemoveItem(args[1])

	case "qty":
		if len(args) < 3 {
			fmt.Println("usage: qty <productId> <quantity>")
			return
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Println("quantity must be an integer")
			return
		}
		a.cart.UpdateQuantity(args[1], n)

	case "items":
		items := a.cart.Items()
		if len(items) == 0 {
			fmt.Println("cart is empty")
			return
		}
		for _, item := range items {
			fmt.Printf("  %-12s %-20s x%-3d %8s\n",
				item.ProductID, item.Name, item.Quantity, formatCents(item.PriceCents))
		}

	case "total":
		fmt.Printf("%s across %d units\n", formatCents(a.cart.Total()), a.cart.ItemCount())

	case "count":
		fmt.Printf("%d units in %d lines\n", a.cart.ItemCount(), a.cart.Lines())

	case "status":
		fmt.Printf("sync: %s, header: %q\n", a.cart.Status(), a.cart.HeaderID())

	case "clear":
		a.cart.Clear()

	case "login":
		if len(args) < 3 {
			fmt.Println("usage: login <email> <password>")
			return
		}
		a.login(args[1], args[2])

	case "logout":
		a.gateway.SetToken("")
		a.session.Logout()
		fmt.Println("logged out, cart kept locally")

	case "checkout":
		if err := a.cart.Checkout(context.Background()); err != nil {
			fmt.Printf("checkout failed: %v\n", err)
			return
		}
		fmt.Println("order placed")

	default:
		fmt.Printf("unknown command %q, try 'help'\n", args[0])
	}
}

// login authenticates against the account endpoint, installs the bearer
// token on the gateway and only then flips the session. Ordering matters:
// the identity transition kicks off the cart merge, which must already be
// able to call the cart endpoints.
func (a *app) login(email, password string) {
	body, _ := json.Marshal(domain.LoginRequest{Email: email, Password: password})
	resp, err := a.client.Post(a.baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("login failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool                 `json:"success"`
		Data    domain.LoginResponse `json:"data"`
		Error   string               `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		fmt.Printf("login failed: %v\n", err)
		return
	}
	if !envelope.Success || envelope.Data.Shopper == nil {
		fmt.Printf("login rejected: %s\n", envelope.Error)
		return
	}

	a.gateway.SetToken(envelope.Data.AccessToken)
	a.session.Login(envelope.Data.Shopper.ID)

	a.cart.Wait()
	fmt.Printf("logged in as %s, cart merged (%d units)\n",
		envelope.Data.Shopper.Email, a.cart.ItemCount())
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func printHelp() {
	fmt.Println(`commands:
  add <productId> <name> <priceCents> [qty]   add cones to the cart
  rm <productId>                              remove a line
  qty <productId> <quantity>                  change a line quantity
  items                                       list cart lines
  total                                       cart total
  count                                       units and lines
  status                                      sync status and server header
  clear                                       empty the cart
  login <email> <password>                    sign in and merge carts
  logout                                      sign out, keep the cart
  checkout                                    place the order
  quit                                        leave`)
}
