package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one customer's rating of a product. A user reviews a product at
// most once.
type Review struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"column:user_id;not null;uniqueIndex:idx_review_user_product,priority:1" json:"user_id"`
	ProductID   uint          `gorm:"column:product_id;not null;index;uniqueIndex:idx_review_user_product,priority:2" json:"product_id"`
	Rating      int           `gorm:"column:rating;not null" json:"rating"`
	Title       string        `gorm:"column:title" json:"title,omitempty"`
	Body        string        `gorm:"column:review;type:text" json:"review,omitempty"`
	IsVerified  bool          `gorm:"column:is_verified;default:false" json:"is_verified"`
	IsPublished bool          `gorm:"column:is_published;default:true" json:"is_published"`
	Images      []ReviewImage `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"column:review_id;index;not null" json:"review_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewImage) TableName() string {
	return "review_images"
}

type ReviewSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

func (t MediaType) Valid() bool {
	return t == MediaImage || t == MediaVideo
}

// ProductMedia is an ordered image or video of a product. A product with
// media has exactly one default entry.
type ProductMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"column:product_id;not null;index;uniqueIndex:idx_product_default_media,where:is_default" json:"product_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	Alt       string    `gorm:"column:alt" json:"alt,omitempty"`
	Type      MediaType `gorm:"column:type;not null;default:IMAGE" json:"type"`
	IsDefault bool      `gorm:"column:is_default;default:false" json:"is_default"`
	SortOrder int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductMedia) TableName() string {
	return "product_media"
}
