package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docvault/internal/common"
)

func TestParseDocumentStatus(t *testing.T) {
	for _, s := range []string{"uploaded", "processing", "ready", "failed"} {
		got, err := ParseDocumentStatus(s)
		require.NoError(t, err)
		assert.Equal(t, DocumentStatus(s), got)
	}

	_, err := ParseDocumentStatus("deleted")
	require.ErrorIs(t, err, common.ErrInvalidStatus)

	_, err = ParseDocumentStatus("Uploaded")
	require.ErrorIs(t, err, common.ErrInvalidStatus, "statuses are case-sensitive")
}
