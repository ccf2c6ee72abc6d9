package authz

import (
	"github.com/refboard/internal/constants"
)

// 内置角色的授权策略
var builtinRolePolicies = map[string][]Policy{
	constants.RoleReferralEditor: {
		{Object: "/admin/referrals", Action: "*"},
		{Object: "/admin/referrals/*", Action: "*"},
		{Object: "/admin/clicks", Action: "GET"},
		{Object: "/admin/clicks/*", Action: "POST"},
	},
	constants.RoleStatsViewer: {
		{Object: "/admin/referrals/stats", Action: "GET"},
		{Object: "/admin/referrals", Action: "GET"},
		{Object: "/admin/referrals/*", Action: "GET"},
		{Object: "/admin/clicks", Action: "GET"},
	},
}

// SeedBuiltinRoles 初始化内置角色及其策略，可重复调用。
func (s *Service) SeedBuiltinRoles() error {
	for role, policies := range builtinRolePolicies {
		if _, err := s.EnsureRole(role); err != nil {
			return err
		}
		for _, policy := range policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
	}
	return nil
}
