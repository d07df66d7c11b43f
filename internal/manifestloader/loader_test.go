package manifestloader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSSHURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want bool
	}{
		{"ssh://git@git.internal/blocks/csv-reader.git", true},
		{"git@git.internal:blocks/csv-reader.git", true},
		{"https://git.internal/blocks/csv-reader.git", false},
		{"http://git.internal/blocks/csv-reader.git", false},
		{"https://svc-token@git.internal/blocks/csv-reader.git", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, isSSHURL(tc.url), tc.url)
	}
}

func TestSSHUser(t *testing.T) {
	t.Parallel()

	require.Equal(t, "git", sshUser("git@git.internal:blocks/csv-reader.git"))
	require.Equal(t, "deploy", sshUser("deploy@git.internal:blocks/csv-reader.git"))
	require.Equal(t, "git", sshUser("ssh://git.internal/blocks/csv-reader.git"))
	require.Equal(t, "deploy", sshUser("ssh://deploy@git.internal/blocks/csv-reader.git"))
}
