package wishlist

// WishlistIDsDTO is the toggle response: the full wishlist after the change.
type WishlistIDsDTO struct {
	Wishlist []string `json:"wishlist"`
}
