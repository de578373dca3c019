package models

import "time"

// TextBlockTable is the owner table identifier used for text block images.
const TextBlockTable = "text_block"

type TextBlock struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Image     string    `json:"image,omitempty"`
	Text      string    `json:"text"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *TextBlock) OwnerRef() OwnerRef {
	return OwnerRef{Table: TextBlockTable, ID: b.ID}
}
