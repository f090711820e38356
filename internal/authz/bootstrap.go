package authz

// RoleSeed 预置角色
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 管理端预置角色：商品维护、履约、超级管理员
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "catalog_manager",
			Policies: []Policy{
				{Object: "/admin/products", Action: "POST"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/uploads/image", Action: "POST"},
				{Object: "/admin/uploads/image/:filename", Action: "DELETE"},
			},
		},
		{
			Role: "fulfillment",
			Policies: []Policy{
				{Object: "/admin/orders/:id/ship", Action: "POST"},
				{Object: "/admin/orders/:id/deliver", Action: "POST"},
			},
		},
		{
			Role:     "admin",
			Inherits: []string{"catalog_manager", "fulfillment"},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色，重复执行无副作用
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
		for _, parent := range seed.Inherits {
			if err := s.InheritRole(seed.Role, parent); err != nil {
				return err
			}
		}
	}
	return nil
}
