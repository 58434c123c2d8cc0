package models

// Category группа товаров для меню витрины
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Product карточка товара, цены хранятся в вариантах
type Product struct {
	ID          int64     `db:"id" json:"id"`
	CategoryID  *int64    `db:"category_id" json:"categoryId,omitempty"`
	Category    *string   `db:"category_name" json:"category,omitempty"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	ImageURL    *string   `db:"image_url" json:"imageUrl,omitempty"`
	Active      bool      `db:"active" json:"active"`
	Variants    []Variant `db:"-" json:"variants"`
}

// Variant единица продажи товара ("Pcs", "Box"). Цена в целых рупиях.
type Variant struct {
	ID          int64           `db:"id" json:"id"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName,omitempty"`
	Name        string          `db:"name" json:"name"`
	Price       int64           `db:"price" json:"price"`
	Barcode     *string         `db:"barcode" json:"barcode,omitempty"`
	Wholesale   []WholesaleRule `db:"-" json:"wholesale,omitempty"`
}

// WholesaleRule оптовая цена: при покупке от MinQty штук цена за единицу равна Price
type WholesaleRule struct {
	ID        int64 `db:"id" json:"id"`
	VariantID int64 `db:"variant_id" json:"variantId"`
	MinQty    int   `db:"min_qty" json:"minQty"`
	Price     int64 `db:"price" json:"price"`
}

// ShippingZone зона доставки с фиксированной стоимостью
type ShippingZone struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Fee  int64  `db:"fee" json:"fee"`
}

// CartLine строка корзины, пришедшая от клиента
type CartLine struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}
