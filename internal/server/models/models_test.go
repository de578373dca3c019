package models

import (
	"testing"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, in := range []string{"ROLE_ADMIN", "ADMIN", "admin"} {
		r, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, r)
	}
	for _, in := range []string{"ROLE_USER", "USER", "user"} {
		r, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, r)
	}

	_, err := ParseRole("root")
	assert.ErrorIs(t, err, common.ErrInvalidRole)
	assert.False(t, Role("root").Valid())
}

func TestStoredFile_State(t *testing.T) {
	f := &StoredFile{ID: 1, Address: "a.jpg"}
	assert.Equal(t, FileOrphaned, f.State())

	f.Owner = &OwnerRef{Table: TextBlockTable, ID: 7}
	assert.Equal(t, FileAssociated, f.State())
	assert.Equal(t, "text_block:7", f.Owner.String())
}

func TestFileState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to FileState
		want     bool
	}{
		{FileAssociated, FileOrphaned, true},
		{FileAssociated, FileAssociated, true},
		{FileAssociated, FilePurged, false},
		{FileOrphaned, FileAssociated, true},
		{FileOrphaned, FilePurged, true},
		{FilePurged, FileOrphaned, false},
		{FilePurged, FileAssociated, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestUser_Principal(t *testing.T) {
	u := &User{ID: 3, Login: "alice", PasswordHash: []byte("x"), Role: RoleAdmin}
	assert.Equal(t, &Principal{ID: 3, Login: "alice", Role: RoleAdmin}, u.Principal())
}
