package entity

import "time"

// Generation is a single AI-generated blog post. The markdown body lives in
// object storage at ContentURL; the row itself only carries metadata.
//
// Charged tracks whether the credit debit for this generation succeeded. A
// generation whose debit failed is still delivered to the user and left with
// Charged=false for later reconciliation.
type Generation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Topic      string    `json:"topic"`
	ContentURL string    `json:"content_url"`
	SEOTips    []string  `json:"seo_tips"`
	Charged    bool      `json:"charged"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Content is populated on the generate response only; reads go through
	// ContentURL.
	Content string `json:"content,omitempty" gorm:"-"`
}
