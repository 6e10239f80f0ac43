package models

import "testing"

func TestUserRoleValid(t *testing.T) {
	for _, role := range []UserRole{UserRoleCustomer, UserRoleAdmin, UserRoleSuperadmin} {
		if !role.Valid() {
			t.Errorf("%q reported invalid", role)
		}
	}
	for _, role := range []UserRole{"", "Owner", "customer", "SUPERADMIN"} {
		if role.Valid() {
			t.Errorf("%q reported valid", role)
		}
	}
}

func TestUserRoleAtLeast(t *testing.T) {
	cases := []struct {
		role     UserRole
		required UserRole
		want     bool
	}{
		{UserRoleCustomer, UserRoleCustomer, true},
		{UserRoleCustomer, UserRoleAdmin, false},
		{UserRoleAdmin, UserRoleCustomer, true},
		{UserRoleAdmin, UserRoleSuperadmin, false},
		{UserRoleSuperadmin, UserRoleAdmin, true},
		{UserRoleSuperadmin, UserRoleSuperadmin, true},
		{"Owner", UserRoleCustomer, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.required); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}
