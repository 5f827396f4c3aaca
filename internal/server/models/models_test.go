package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID_RoundTrip(t *testing.T) {
	id, err := ParseUserID(UserID(42).String())
	require.NoError(t, err)
	assert.Equal(t, UserID(42), id)

	_, err = ParseUserID("42abc")
	assert.Error(t, err)
	_, err = ParseUserID("")
	assert.Error(t, err)
}

func TestPermissionLevel_Order(t *testing.T) {
	assert.Less(t, Banned, Standard)
	assert.Less(t, Standard, Admin)
	assert.Less(t, Admin, SuperAdmin)
}

func TestParsePermissionLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    PermissionLevel
		wantErr bool
	}{
		{"banned", Banned, false},
		{"Standard", Standard, false},
		{" admin ", Admin, false},
		{"superadmin", SuperAdmin, false},
		{"root", Standard, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePermissionLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) PermissionLevel {
	t.Helper()
	p, err := ParsePermissionLevel(s)
	require.NoError(t, err)
	return p
}

func TestPermissionLevel_Valid(t *testing.T) {
	assert.True(t, Banned.Valid())
	assert.True(t, SuperAdmin.Valid())
	assert.False(t, PermissionLevel(3).Valid())
	assert.Equal(t, "level(7)", PermissionLevel(7).String())
}

func TestUser_Principal(t *testing.T) {
	u := &User{ID: 9, UserName: "alice", Permission: Admin}
	assert.Equal(t, Principal{ID: 9, Level: Admin}, u.Principal())
}
