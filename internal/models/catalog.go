package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitType is the measurement unit a product is sold by.
type UnitType string

// Supported unit types.
const (
	UnitKilogram UnitType = "kg"
	UnitLiter    UnitType = "l"
	UnitPiece    UnitType = "pcs"
)

// UnitTypes lists unit types in display order.
var UnitTypes = []UnitType{UnitKilogram, UnitLiter, UnitPiece}

// Label returns the short display label for the unit.
func (u UnitType) Label() string {
	switch u {
	case UnitKilogram:
		return "kg"
	case UnitLiter:
		return "l"
	case UnitPiece:
		return "pcs"
	default:
		return string(u)
	}
}

// Valid reports whether u is one of the supported unit types.
func (u UnitType) Valid() bool {
	switch u {
	case UnitKilogram, UnitLiter, UnitPiece:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Category groups products. Categories form a tree through ParentID.
type Category struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ParentID      *uint      `gorm:"index" json:"parent_id,omitempty"`
	Name          string     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	SortOrder     int        `gorm:"not null;default:0" json:"sort_order"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	Subcategories []Category `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"subcategories,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Product is a sellable catalog item.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Slug        string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Composition string          `gorm:"type:text" json:"composition,omitempty"`
	UnitType    UnitType        `gorm:"size:10;not null;default:pcs" json:"unit_type"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	SKU         string          `gorm:"column:sku;size:100;uniqueIndex;not null" json:"sku"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	// No gorm default: an explicit false must reach the INSERT.
	IsActive bool `gorm:"not null;index" json:"is_active"`

	Nutrition  *ProductNutrition  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"nutrition,omitempty"`
	Images     []ProductImage     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Attributes []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"attributes,omitempty"`

	// FinalPrice is not persisted; filled in after every load
	FinalPrice decimal.Decimal `gorm:"-" json:"final_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalculateFinalPrice applies the percentage discount to the price and rounds
// to cents.
func (p *Product) CalculateFinalPrice() decimal.Decimal {
	if p.Discount.IsZero() {
		return p.Price.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(p.Discount.Div(hundred))
	return p.Price.Mul(factor).Round(2)
}

// HasDiscount reports whether a non-zero discount applies.
func (p *Product) HasDiscount() bool {
	return p.Discount.IsPositive()
}

// AfterFind attaches the derived final price to every loaded product.
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.FinalPrice = p.CalculateFinalPrice()
	return nil
}

// AfterSave keeps FinalPrice in step with the stored values.
func (p *Product) AfterSave(tx *gorm.DB) error {
	p.FinalPrice = p.CalculateFinalPrice()
	return nil
}

// ProductNutrition holds optional nutrition values per 100g of a product.
type ProductNutrition struct {
	ID        uint                `gorm:"primaryKey" json:"-"`
	ProductID uint                `gorm:"uniqueIndex;not null" json:"-"`
	Calories  decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"calories"`
	Proteins  decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"proteins"`
	Fats      decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"fats"`
	Carbs     decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"carbs"`
}

// TableName pins the table name.
func (ProductNutrition) TableName() string { return "product_nutritions" }

// Attribute is a named product property such as "Country of origin".
type Attribute struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// ProductAttribute binds an attribute value to a product.
type ProductAttribute struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	ProductID   uint       `gorm:"not null;uniqueIndex:unique_product_attribute" json:"-"`
	AttributeID uint       `gorm:"not null;uniqueIndex:unique_product_attribute" json:"attribute_id"`
	Attribute   *Attribute `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE" json:"attribute,omitempty"`
	Value       string     `gorm:"size:255;not null" json:"value"`
}

// ProductImage is an uploaded product picture. ImagePath is relative to the
// media root.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	ImagePath string    `gorm:"size:500;not null" json:"image_path"`
	WebPPath  string    `gorm:"column:webp_path;size:500" json:"webp_path,omitempty"`
	ThumbPath string    `gorm:"size:500" json:"thumb_path,omitempty"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
