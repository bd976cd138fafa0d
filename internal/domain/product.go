// Package domain 定义商品相关的业务领域模型和核心业务规则。
package domain

import (
	"time"
)

// Product 表示商品领域模型
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Available   bool      `json:"available"`
	ImageURL    string    `json:"image_url"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) GetOwnerID() int64   { return p.OwnerID }
func (p *Product) SetOwnerID(id int64) { p.OwnerID = id }

// IsOrderable 判断商品是否可下单
func (p *Product) IsOrderable(quantity int) bool {
	return p.Available && quantity > 0 && quantity <= p.Quantity
}

// ProductRequest 创建与更新共用的请求体
// Available 为空时创建默认为 true，更新保持原值
type ProductRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=255"`
	Description string  `json:"description" binding:"required,min=3"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	Available   *bool   `json:"available"`
	ImageURL    string  `json:"image_url" binding:"omitempty,max=512"`
}

// Apply 将请求字段写入商品
func (r *ProductRequest) Apply(p *Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.Quantity = r.Quantity
	p.ImageURL = r.ImageURL
	if r.Available != nil {
		p.Available = *r.Available
	}
}

// ProductListRequest 表示商品列表查询请求
type ProductListRequest struct {
	PageRequest
	Keyword string `form:"keyword" json:"keyword"` // 名称/描述关键字
	OwnerID *int64 `form:"owner_id" json:"owner_id"`
}
