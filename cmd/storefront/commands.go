package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/angelmondragon/aura-storefront/internal/storefront"
	"github.com/angelmondragon/aura-storefront/internal/storefront/cart"
	"github.com/angelmondragon/aura-storefront/internal/storefront/checkout"
	"github.com/angelmondragon/aura-storefront/internal/storefront/session"
	"github.com/angelmondragon/aura-storefront/pkg/apiclient"
	pkgcheckout "github.com/angelmondragon/aura-storefront/pkg/checkout"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
)

const usage = `usage: storefront <command> [arguments]

commands:
  products [-q keyword]          list the catalogue
  product <id>                   show one product
  cart [show|add|remove|qty|clear] manage the cart
  login -email E -password P     sign in
  register -name N -email E -password P
  logout                         sign out and empty the cart
  whoami                         show the current session
  wishlist [show|toggle <id>]    view or change the wishlist
  checkout [flags]               place an order from the cart
  orders [mine|get <id>|all|pay <id>|deliver <id>]
`

var errUsage = errors.New("invalid usage")

type commandLine struct {
	app *storefront.App
	out io.Writer
}

func (c *commandLine) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return nil
	}
	rest := args[1:]
	switch args[0] {
	case "products":
		return c.products(ctx, rest)
	case "product":
		return c.product(ctx, rest)
	case "cart":
		return c.cart(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "logout":
		c.app.Session.Logout(ctx)
		fmt.Fprintln(c.out, "signed out")
		return nil
	case "whoami":
		return c.whoami()
	case "wishlist":
		return c.wishlist(ctx, rest)
	case "checkout":
		return c.checkout(ctx, rest)
	case "orders":
		return c.orders(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return nil
	}
	fmt.Fprint(c.out, usage)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func (c *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *commandLine) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(c.out)
	keyword := fs.String("q", "", "filter by name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := c.app.API.Products(ctx, *keyword)
	if err != nil {
		return err
	}
	c.app.Wishlist.Wait()
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\t")
	for _, p := range list {
		marker := ""
		if c.app.Wishlist.IsWishlisted(p.ID) {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s\t%s%s\t%s\t%d\t\n", p.ID, p.Name, marker, p.Price.StringFixed(2), p.CountInStock)
	}
	return tw.Flush()
}

func (c *commandLine) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: product <id>", errUsage)
	}
	p, err := c.app.API.Product(ctx, args[0])
	if err != nil {
		return err
	}
	c.app.Wishlist.Wait()
	tw := c.table()
	fmt.Fprintf(tw, "name\t%s\t\n", p.Name)
	fmt.Fprintf(tw, "brand\t%s\t\n", p.Brand)
	fmt.Fprintf(tw, "category\t%s\t\n", p.Category)
	fmt.Fprintf(tw, "price\t%s\t\n", p.Price.StringFixed(2))
	fmt.Fprintf(tw, "in stock\t%d\t\n", p.CountInStock)
	fmt.Fprintf(tw, "rating\t%s (%d reviews)\t\n", p.Rating.StringFixed(1), p.NumReviews)
	fmt.Fprintf(tw, "wishlisted\t%t\t\n", c.app.Wishlist.IsWishlisted(p.ID))
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", p.Description)
	}
	return nil
}

func (c *commandLine) cart(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "show":
	case "add":
		if len(args) != 1 {
			return fmt.Errorf("%w: cart add <productId>", errUsage)
		}
		p, err := c.app.API.Product(ctx, args[0])
		if err != nil {
			return err
		}
		c.app.Cart.AddItem(ctx, cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image})
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: cart remove <productId>", errUsage)
		}
		c.app.Cart.RemoveItem(ctx, args[0])
	case "qty":
		if len(args) != 2 {
			return fmt.Errorf("%w: cart qty <productId> <quantity>", errUsage)
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: quantity must be a number", errUsage)
		}
		c.app.Cart.SetQuantity(ctx, args[0], qty)
	case "clear":
		c.app.Cart.Clear(ctx)
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, sub)
	}
	return c.printCart()
}

func (c *commandLine) printCart() error {
	lines := c.app.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "your cart is empty")
		return nil
	}
	tw := c.table()
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tTOTAL\t")
	for _, line := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n",
			line.ProductID, line.Name, line.Quantity, line.UnitPrice.StringFixed(2), line.Total().StringFixed(2))
	}
	totals := pkgcheckout.Compute(cart.PricedLines(lines))
	fmt.Fprintf(tw, "\t\t\tsubtotal\t%s\t\n", totals.ItemsPrice.StringFixed(2))
	fmt.Fprintf(tw, "\t\t\tshipping\t%s\t\n", totals.ShippingPrice.StringFixed(2))
	fmt.Fprintf(tw, "\t\t\ttotal\t%s\t\n", totals.TotalPrice.StringFixed(2))
	return tw.Flush()
}

func (c *commandLine) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.app.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	c.app.Wishlist.Wait()
	fmt.Fprintf(c.out, "signed in as %s\n", s.Name)
	return nil
}

func (c *commandLine) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.out)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.app.Session.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "welcome, %s\n", s.Name)
	return nil
}

func (c *commandLine) whoami() error {
	s, ok := c.app.Session.Current()
	if !ok {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}
	role := enums.RoleFor(s.IsAdmin)
	fmt.Fprintf(c.out, "%s <%s> (%s)\n", s.Name, s.Email, role)
	return nil
}

func (c *commandLine) wishlist(ctx context.Context, args []string) error {
	if _, err := c.app.Session.Require(session.TierAuthenticated); err != nil {
		return err
	}
	c.app.Wishlist.Wait()
	if len(args) > 0 {
		switch args[0] {
		case "show":
		case "toggle":
			if len(args) != 2 {
				return fmt.Errorf("%w: wishlist toggle <productId>", errUsage)
			}
			if err := c.app.Wishlist.Toggle(ctx, args[1]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown wishlist command %q", errUsage, args[0])
		}
	}
	ids := c.app.Wishlist.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(c.out, "your wishlist is empty")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

func (c *commandLine) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(c.out)
	var draft checkout.Draft
	fs.StringVar(&draft.Shipping.Address, "address", "", "street address")
	fs.StringVar(&draft.Shipping.City, "city", "", "city")
	fs.StringVar(&draft.Shipping.PostalCode, "postal", "", "postal code")
	fs.StringVar(&draft.Shipping.Country, "country", "", "country")
	pay := fs.String("pay", "cod", "payment method: cod|card")
	fs.StringVar(&draft.Card.Number, "card-number", "", "card number")
	fs.StringVar(&draft.Card.Name, "card-name", "", "name on card")
	fs.StringVar(&draft.Card.Expiry, "expiry", "", "card expiry (MM/YY)")
	fs.StringVar(&draft.Card.CVV, "cvv", "", "card security code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(*pay))
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	draft.PaymentMethod = method

	flow, err := c.app.NewCheckout()
	if err != nil {
		return err
	}
	if err := flow.Enter(); err != nil {
		return err
	}
	if method == enums.PaymentMethodCard {
		fmt.Fprintln(c.out, "processing payment...")
	}
	orderID, err := flow.Submit(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order placed: %s\n", orderID)
	return nil
}

func (c *commandLine) orders(ctx context.Context, args []string) error {
	sub := "mine"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	s, err := c.app.Session.Require(session.TierAuthenticated)
	if err != nil {
		return err
	}
	switch sub {
	case "mine":
		list, err := c.app.API.MyOrders(ctx, s.Token)
		if err != nil {
			return err
		}
		return c.printOrders(list)
	case "all":
		if _, err := c.app.Session.Require(session.TierAdmin); err != nil {
			return err
		}
		list, err := c.app.API.AllOrders(ctx, s.Token)
		if err != nil {
			return err
		}
		return c.printOrders(list)
	case "get", "pay", "deliver":
		if len(args) != 1 {
			return fmt.Errorf("%w: orders %s <id>", errUsage, sub)
		}
		var order *apiclient.Order
		switch sub {
		case "get":
			order, err = c.app.API.Order(ctx, s.Token, args[0])
		case "pay":
			order, err = c.app.Admin.MarkPaid(ctx, args[0])
		default:
			order, err = c.app.Admin.MarkDelivered(ctx, args[0])
		}
		if err != nil {
			return err
		}
		return c.printOrder(order)
	}
	return fmt.Errorf("%w: unknown orders command %q", errUsage, sub)
}

func (c *commandLine) printOrders(list []apiclient.Order) error {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return nil
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tDATE\tTOTAL\tPAID\tDELIVERED\t")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.TotalPrice.StringFixed(2), yesNo(o.IsPaid), yesNo(o.IsDelivered))
	}
	return tw.Flush()
}

func (c *commandLine) printOrder(o *apiclient.Order) error {
	tw := c.table()
	fmt.Fprintf(tw, "order\t%s\t\n", o.ID)
	if o.User.Name != "" {
		fmt.Fprintf(tw, "customer\t%s <%s>\t\n", o.User.Name, o.User.Email)
	}
	fmt.Fprintf(tw, "ship to\t%s, %s %s, %s\t\n",
		o.ShippingAddress.Address, o.ShippingAddress.PostalCode, o.ShippingAddress.City, o.ShippingAddress.Country)
	fmt.Fprintf(tw, "payment\t%s\t\n", o.PaymentMethod)
	for _, item := range o.OrderItems {
		fmt.Fprintf(tw, "item\t%d x %s @ %s\t\n", item.Qty, item.Name, item.Price.StringFixed(2))
	}
	fmt.Fprintf(tw, "items\t%s\t\n", o.ItemsPrice.StringFixed(2))
	fmt.Fprintf(tw, "shipping\t%s\t\n", o.ShippingPrice.StringFixed(2))
	fmt.Fprintf(tw, "total\t%s\t\n", o.TotalPrice.StringFixed(2))
	fmt.Fprintf(tw, "paid\t%s\t\n", stamp(o.IsPaid, o.PaidAt))
	fmt.Fprintf(tw, "delivered\t%s\t\n", stamp(o.IsDelivered, o.DeliveredAt))
	return tw.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func stamp(done bool, at *time.Time) string {
	if !done {
		return "no"
	}
	if at == nil {
		return "yes"
	}
	return "yes, " + at.Format("2006-01-02 15:04")
}
