package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"studentmarket/internal/cart"
	"studentmarket/internal/client"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "marketplace server base URL")
	cartPath := flag.String("cart", "data/cart.json", "path to the persisted cart file")
	flag.Parse()

	api := client.NewClient(client.Config{BaseURL: *baseURL})

	store, err := cart.OpenStore(*cartPath)
	if err != nil {
		log.Fatalf("failed to open cart: %v", err)
	}
	defer store.Close()

	ui := &ui{api: api, store: store, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	ui.run()
}

type ui struct {
	api   *client.Client
	store *cart.Store
	in    *bufio.Reader
	out   io.Writer
}

func (ui *ui) run() {
	ctx := context.Background()
	for {
		fmt.Fprintln(ui.out, "\n1) Register")
		fmt.Fprintln(ui.out, "2) Login")
		fmt.Fprintln(ui.out, "0) Quit")
		fmt.Fprint(ui.out, "> ")
		switch strings.TrimSpace(ui.readLine()) {
		case "1":
			ui.register(ctx)
		case "2":
			if ui.login(ctx) {
				ui.session(ctx)
			}
		default:
			return
		}
	}
}

func (ui *ui) register(ctx context.Context) {
	fmt.Fprint(ui.out, "Username: ")
	username := ui.readLine()
	fmt.Fprint(ui.out, "Email: ")
	email := ui.readLine()
	fmt.Fprint(ui.out, "Password: ")
	password := ui.readLine()

	user, err := ui.api.Register(ctx, username, email, password)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintf(ui.out, "Registered %s (id %d), starting balance %.2f\n", user.Username, user.ID, user.Balance)
}

func (ui *ui) login(ctx context.Context) bool {
	fmt.Fprint(ui.out, "Username: ")
	username := ui.readLine()
	fmt.Fprint(ui.out, "Password: ")
	password := ui.readLine()

	user, err := ui.api.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return false
	}
	fmt.Fprintf(ui.out, "Welcome, %s!\n", user.Username)
	return true
}

func (ui *ui) session(ctx context.Context) {
	for {
		fmt.Fprintln(ui.out, "\n1) Browse items")
		fmt.Fprintln(ui.out, "2) View cart")
		fmt.Fprintln(ui.out, "3) Add item to cart")
		fmt.Fprintln(ui.out, "4) Remove item from cart")
		fmt.Fprintln(ui.out, "5) Checkout")
		fmt.Fprintln(ui.out, "6) My balance")
		fmt.Fprintln(ui.out, "0) Log out")
		fmt.Fprint(ui.out, "> ")
		switch strings.TrimSpace(ui.readLine()) {
		case "1":
			ui.browse(ctx)
		case "2":
			ui.viewCart()
		case "3":
			ui.addToCart(ctx)
		case "4":
			ui.removeFromCart()
		case "5":
			ui.checkout(ctx)
		case "6":
			ui.balance(ctx)
		default:
			return
		}
	}
}

func (ui *ui) browse(ctx context.Context) {
	items, err := ui.api.ListItems(ctx)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(ui.out, "No items for sale.")
		return
	}
	for _, it := range items {
		status := "available"
		if !it.Available {
			status = "sold"
		}
		fmt.Fprintf(ui.out, "- %s  %s (%s, %s)  %.2f  seller %d  [%s]\n",
			it.ID, it.Name, it.Subject, it.Condition, it.Price, it.OwnerID, status)
	}
}

func (ui *ui) viewCart() {
	snap := ui.store.Snapshot()
	if len(snap.Lines) == 0 {
		fmt.Fprintln(ui.out, "Cart is empty.")
		return
	}
	for _, l := range snap.Lines {
		fmt.Fprintf(ui.out, "- %s x%d  %.2f each  seller %d\n", l.Name, l.Quantity, l.Price, l.SellerID)
	}
	fmt.Fprintf(ui.out, "Total: %.2f\n", snap.Total())
}

func (ui *ui) addToCart(ctx context.Context) {
	fmt.Fprint(ui.out, "Item ID: ")
	id := strings.TrimSpace(ui.readLine())
	fmt.Fprint(ui.out, "Quantity: ")
	qty, _ := strconv.Atoi(strings.TrimSpace(ui.readLine()))

	item, err := ui.api.GetItem(ctx, id)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	if !item.Available {
		fmt.Fprintln(ui.out, "Item is no longer available.")
		return
	}
	err = ui.store.Add(cart.Line{
		ItemID:   item.ID,
		Name:     item.Name,
		SellerID: item.OwnerID,
		Price:    item.Price,
		Quantity: qty,
	})
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintln(ui.out, "Added to cart.")
}

func (ui *ui) removeFromCart() {
	fmt.Fprint(ui.out, "Item name: ")
	name := strings.TrimSpace(ui.readLine())
	fmt.Fprint(ui.out, "Seller ID: ")
	sellerID, _ := strconv.Atoi(strings.TrimSpace(ui.readLine()))

	if err := ui.store.Remove(name, sellerID); err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintln(ui.out, "Removed.")
}

func (ui *ui) checkout(ctx context.Context) {
	snap := ui.store.Snapshot()
	if len(snap.Lines) == 0 {
		fmt.Fprintln(ui.out, "Cart is empty.")
		return
	}
	fmt.Fprint(ui.out, "Delivery address: ")
	address := ui.readLine()

	order, err := ui.api.Checkout(ctx, snap, address)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintf(ui.out, "Order %s placed, total %.2f\n", order.ID, order.TotalPrice)

	// Reviews come before the cart is cleared so the buyer can still see
	// what they bought while writing them.
	comments := make(map[string]string)
	for _, line := range order.Lines {
		fmt.Fprintf(ui.out, "Leave a review for %q (blank to skip): ", line.ItemName)
		if text := strings.TrimSpace(ui.readLine()); text != "" {
			comments[line.ItemID] = text
		}
	}
	if len(comments) > 0 {
		if err := ui.api.AddComments(ctx, comments); err != nil {
			fmt.Fprintln(ui.out, "Error:", err)
			return
		}
		fmt.Fprintln(ui.out, "Reviews submitted.")
	}
	if err := ui.store.Clear(); err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
	}
}

func (ui *ui) balance(ctx context.Context) {
	balance, err := ui.api.Balance(ctx)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintf(ui.out, "Balance: %.2f\n", balance)
}

func (ui *ui) readLine() string {
	s, _ := ui.in.ReadString('\n')
	return strings.TrimRight(s, "\r\n")
}
