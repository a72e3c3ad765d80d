package auth

import "testing"

func TestRequiredRole(t *testing.T) {
	cases := []struct {
		path   string
		method string
		want   *UserRole
	}{
		{"/api/dashboard/kpis", "GET", rolePtr(RoleViewer)},
		{"/api/dashboard/cache", "DELETE", rolePtr(RoleAdmin)},
		{"/api/sources", "GET", rolePtr(RoleViewer)},
		{"/api/sources/refresh", "POST", rolePtr(RoleAdmin)},
		{"/health", "GET", nil},
	}
	for _, tc := range cases {
		got := RequiredRole(tc.path, tc.method)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("RequiredRole(%s %s) = %v, want nil", tc.method, tc.path, *got)
		case tc.want != nil && got == nil:
			t.Errorf("RequiredRole(%s %s) = nil, want %v", tc.method, tc.path, *tc.want)
		case tc.want != nil && got != nil && *got != *tc.want:
			t.Errorf("RequiredRole(%s %s) = %v, want %v", tc.method, tc.path, *got, *tc.want)
		}
	}
}

func rolePtr(r UserRole) *UserRole { return &r }

func TestAllows(t *testing.T) {
	if !Allows(RoleAdmin, RoleViewer) {
		t.Error("admin should satisfy viewer paths")
	}
	if !Allows(RoleAdmin, RoleAdmin) {
		t.Error("admin should satisfy admin paths")
	}
	if !Allows(RoleViewer, RoleViewer) {
		t.Error("viewer should satisfy viewer paths")
	}
	if Allows(RoleViewer, RoleAdmin) {
		t.Error("viewer must not satisfy admin paths")
	}
}

func TestParseBearerToken(t *testing.T) {
	if got := ParseBearerToken("Bearer abc123"); got != "abc123" {
		t.Errorf("got %q", got)
	}
	if got := ParseBearerToken("bearer abc123"); got != "abc123" {
		t.Errorf("lowercase scheme: got %q", got)
	}
	if got := ParseBearerToken("Basic abc123"); got != "" {
		t.Errorf("wrong scheme accepted: %q", got)
	}
	if got := ParseBearerToken(""); got != "" {
		t.Errorf("empty header: %q", got)
	}
}
