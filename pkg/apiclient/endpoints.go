package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var out User
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/api/users",
		body:        map[string]string{"name": name, "email": email, "password": password},
		credentials: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out User
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/api/users/login",
		body:        map[string]string{"email": email, "password": password},
		credentials: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the server-side session behind token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/api/users/logout", token: token}, nil)
}

func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/users/profile", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wishlist returns the ids of the caller's wishlisted products, in wishlist order.
func (c *Client) Wishlist(ctx context.Context, token string) ([]string, error) {
	var out []Product
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/users/wishlist", token: token}, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out))
	for _, p := range out {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// ToggleWishlist flips productID and returns the whole new wishlist.
func (c *Client) ToggleWishlist(ctx context.Context, token, productID string) ([]string, error) {
	var out wishlistResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/users/wishlist",
		token:  token,
		body:   map[string]string{"productId": productID},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Wishlist == nil {
		out.Wishlist = []string{}
	}
	return out.Wishlist, nil
}

func (c *Client) Products(ctx context.Context, keyword string) ([]Product, error) {
	path := "/api/products"
	if keyword != "" {
		path += "?" + url.Values{"keyword": {keyword}}.Encode()
	}
	var out []Product
	if err := c.do(ctx, call{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/products/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder places an order. idempotencyKey lets the server replay the
// first response if the same submission arrives twice.
func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, req CreateOrderRequest) (*Order, error) {
	var out Order
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/api/orders",
		token:          token,
		body:           req,
		idempotencyKey: idempotencyKey,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders/myorders", token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, token, id string) (*Order, error) {
	var out Order
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders/" + url.PathEscape(id), token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AllOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/orders", token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkPaid(ctx context.Context, token, id string) (*Order, error) {
	return c.transition(ctx, token, id, "pay")
}

func (c *Client) MarkDelivered(ctx context.Context, token, id string) (*Order, error) {
	return c.transition(ctx, token, id, "deliver")
}

func (c *Client) transition(ctx context.Context, token, id, action string) (*Order, error) {
	var out Order
	path := "/api/orders/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, call{method: http.MethodPut, path: path, token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
