package service

import "github.com/MorseWayne/content_shop/internal/domain"

// CheckOwner 资源归属者与当前身份一致时返回 nil
func CheckOwner(resource domain.Owned, identity *domain.Identity) error {
	return checkOwnerID(resource.GetOwnerID(), identity)
}

func checkOwnerID(ownerID int64, identity *domain.Identity) error {
	if identity == nil || identity.UserID <= 0 || ownerID != identity.UserID {
		return ErrForbidden
	}
	return nil
}

// AssignOwner 创建资源时写入归属者，覆盖客户端提供的任何值
func AssignOwner(resource domain.Ownable, identity *domain.Identity) error {
	if identity == nil || identity.UserID <= 0 {
		return ErrForbidden
	}
	resource.SetOwnerID(identity.UserID)
	return nil
}
