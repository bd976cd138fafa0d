package domain

// Identity 表示一次请求中已认证的主体。
// 每次请求都从令牌重新解析，不做持久化。
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Owned 由带有归属者的资源实现
type Owned interface {
	GetOwnerID() int64
}

// Ownable 创建资源时由服务层写入归属者
type Ownable interface {
	Owned
	SetOwnerID(id int64)
}
