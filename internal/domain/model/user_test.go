package model

import "testing"

func TestIdentityTier(t *testing.T) {
	tests := []struct {
		name  string
		ident *Identity
		want  Tier
	}{
		{"nil identity", nil, TierReader},
		{"plain reader", &Identity{UserType: UserTypeReader}, TierReader},
		{"librarian by type", &Identity{UserType: UserTypeLibrarian}, TierLibrarian},
		{"system admin by type", &Identity{UserType: UserTypeSystemAdmin}, TierAdmin},
		{"superuser overrides reader type", &Identity{UserType: UserTypeReader, IsSuper: true}, TierAdmin},
		{"admin role on reader type", &Identity{UserType: UserTypeReader, RoleNames: []string{RoleNameAdmin}}, TierAdmin},
		{"librarian role on reader type", &Identity{UserType: UserTypeReader, RoleNames: []string{RoleNameLibrarian}}, TierLibrarian},
		{"reader role only", &Identity{UserType: UserTypeReader, RoleNames: []string{RoleNameReader}}, TierReader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ident.Tier(); got != tt.want {
				t.Errorf("Tier() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUserTypeValid(t *testing.T) {
	if UserType(3).Valid() {
		t.Error("user type 3 should be invalid")
	}
	if UserType(-1).Valid() {
		t.Error("negative user type should be invalid")
	}
	if !UserTypeLibrarian.Valid() {
		t.Error("librarian type should be valid")
	}
}

func TestHasRole(t *testing.T) {
	ident := &Identity{RoleNames: []string{"reader", "librarian"}}
	if !ident.HasRole("librarian") {
		t.Error("expected librarian role")
	}
	if ident.HasRole("system_admin") {
		t.Error("did not expect system_admin role")
	}
}
