package domain

// Role 由外部认证服务声明的调用方角色
type Role string

const (
	RoleOwner    Role = "owner"
	RoleCustomer Role = "customer"
)

func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleCustomer
}

// Caller 已认证的调用方身份（本服务不做凭证校验）
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) IsOwner() bool {
	return c.ID != "" && c.Role == RoleOwner
}
