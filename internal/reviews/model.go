package reviews

import "time"

// Review is a customer product review stored for reply generation.
type Review struct {
	ID          string
	UserID      string
	ShopID      string
	ProductName string
	Author      string
	Rating      int
	Body        string
	CreatedAt   time.Time
}

// Reply is a generated merchant reply for a review. Regeneration creates a new
// reply; approving one marks it as the reply the merchant published.
type Reply struct {
	ID         string
	ReviewID   string
	UserID     string
	Tone       string
	Body       string
	Approved   bool
	ApprovedAt *time.Time
	Provider   string
	Model      string
	CreatedAt  time.Time
}
