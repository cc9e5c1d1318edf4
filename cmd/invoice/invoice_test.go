package invoice

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/sci-ledger/cmd/internal/cmdtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAndURL(t *testing.T) {
	c := cmdtest.Setup(t)
	scan := filepath.Join(t.TempDir(), "edf.pdf")
	require.NoError(t, os.WriteFile(scan, []byte("%PDF-1.4"), 0600))

	out, err := cmdtest.Run(t, Cmd, "attach", "--number", "EDF-04", "--amount", "89,90", "--file", scan)
	require.NoError(t, err)
	require.Contains(t, out, "document: ")
	documentID := strings.TrimSpace(out[strings.Index(out, "document: ")+len("document: "):])

	docs, err := c.GetRepository().ListDocuments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, documentID, docs[0].ID)

	ttl = 0
	out, err = cmdtest.Run(t, Cmd, "url", documentID)
	require.NoError(t, err)
	assert.Contains(t, out, "/blobs/"+docs[0].Path+"?token=")
}
