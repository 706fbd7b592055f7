package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTableParses(t *testing.T) {
	table := DefaultTable()
	require.NotNil(t, table)
	require.GreaterOrEqual(t, table.Version, 1)
	require.NoError(t, table.Validate())
}

func TestDefaultTableMarksChannelMajor(t *testing.T) {
	major := DefaultTable().MajorFor("/channels/{channel.id}/messages/{message.id}")
	require.True(t, major["channel.id"])
	require.False(t, major["message.id"])
}

func TestTableOverrideReplacesDefaults(t *testing.T) {
	table, err := ParseTable([]byte(`
version: 1
defaults: [channel.id]
routes:
  - template: /channels/{channel.id}/special
    major: []
`))
	require.NoError(t, err)

	require.True(t, table.MajorFor("/channels/{channel.id}/messages")["channel.id"])
	require.False(t, table.MajorFor("/channels/{channel.id}/special")["channel.id"])
}

func TestParseTableRejectsMissingVersion(t *testing.T) {
	_, err := ParseTable([]byte(`defaults: [channel.id]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "version")
}

func TestParseTableRejectsMajorAbsentFromTemplate(t *testing.T) {
	_, err := ParseTable([]byte(`
version: 1
routes:
  - template: /guilds/{guild.id}
    major: [channel.id]
`))
	require.Error(t, err)
}

func TestLoadTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\ndefaults: [guild.id]\n"), 0600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Version)
	require.True(t, table.MajorFor("/guilds/{guild.id}")["guild.id"])
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
