// internal/models/product.go
package models

type Product struct {
	BaseModel
	Title         *string       `json:"title" gorm:"size:255"`
	ImageURL      *string       `json:"image_url" gorm:"type:text"`
	Source        ProductSource `json:"source" gorm:"type:varchar(20);not null;default:'admin'"`
	NormalizedSKU *string       `json:"normalized_sku" gorm:"column:normalized_sku;type:text"`
	NormalizedURL *string       `json:"normalized_url" gorm:"column:normalized_url;type:text"`
	RawInput      JSONB         `json:"raw_input" gorm:"type:jsonb"`

	// Relationships
	Offers []Offer `json:"offers,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Links  []Link  `json:"links,omitempty" gorm:"foreignKey:ProductID"`
}
