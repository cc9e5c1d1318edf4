package property

import (
	"context"
	"strings"
	"testing"

	"fjacquet/sci-ledger/cmd/internal/cmdtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndListProperties(t *testing.T) {
	c := cmdtest.Setup(t)

	out, err := cmdtest.Run(t, Cmd, "add", "--name", "Maison", "--type", "house", "--surface", "85",
		"--address", "3 rue des Lilas")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	stored, err := c.GetRepository().GetProperty(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Maison", stored.Name)
	assert.Equal(t, 85, stored.Surface)

	out, err = cmdtest.Run(t, Cmd, "add", "--name", "Studio", "--type", "flat", "--surface", "22", "--address", "")
	require.NoError(t, err)
	assert.NotEqual(t, id, strings.TrimSpace(out))

	out, err = cmdtest.Run(t, Cmd, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "3 rue des Lilas")
	assert.Contains(t, out, "Studio")
	assert.Less(t, strings.Index(out, "Maison"), strings.Index(out, "Studio"))
}

func TestAddProperty_RejectsBadSurface(t *testing.T) {
	cmdtest.Setup(t)
	_, err := cmdtest.Run(t, Cmd, "add", "--name", "Maison", "--surface", "85.5")
	assert.Error(t, err)
}
