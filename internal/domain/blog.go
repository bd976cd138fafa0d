package domain

import "time"

// Blog 表示博客文章
type Blog struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Tags        string    `json:"tags"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Blog) GetOwnerID() int64   { return b.OwnerID }
func (b *Blog) SetOwnerID(id int64) { b.OwnerID = id }

// BlogRequest 创建与更新共用的请求体（更新为整体替换）
type BlogRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"required,min=3,max=100"`
	Content     string `json:"content" binding:"required,min=3"`
	Author      string `json:"author" binding:"required,min=3,max=50"`
	Tags        string `json:"tags" binding:"required,min=3,max=255"`
}

// Apply 将请求字段写入博客
func (r *BlogRequest) Apply(b *Blog) {
	b.Title = r.Title
	b.Description = r.Description
	b.Content = r.Content
	b.Author = r.Author
	b.Tags = r.Tags
}
