package authz

import (
	"testing"

	"abayaStore/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcer(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{domain.RoleStaff, "orders", ActionWrite, true},
		{domain.RoleStaff, "dashboard", ActionRead, true},
		{domain.RoleStaff, "exports", ActionRead, true},
		{domain.RoleStaff, "refunds", ActionWrite, false},
		{domain.RoleStaff, "coupons", ActionWrite, false},
		{domain.RoleStaff, "activity", ActionRead, false},
		{domain.RoleAdmin, "refunds", ActionWrite, true},
		{domain.RoleAdmin, "activity", ActionRead, true},
		{domain.RoleAdmin, "orders", ActionRead, true},
		{domain.RoleCustomer, "dashboard", ActionRead, false},
		{domain.RoleCustomer, "orders", ActionRead, false},
		{"", "orders", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			got, err := e.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPolicyRejectsMalformedLines(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	assert.Error(t, loadPolicy(e.enforcer, "p, staff, orders"))
}
