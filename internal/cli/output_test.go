// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/hippocampus/internal/engine"
)

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, engine.DeleteResponse{Success: true, Deleted: "abc"}, "json"))
	assert.Equal(t, "{\n  \"success\": true,\n  \"deleted\": \"abc\"\n}\n", buf.String())
}

func TestRender_YAMLKeepsOrderAndQuotesAmbiguousStrings(t *testing.T) {
	var buf bytes.Buffer
	resp := engine.ContextResponse{
		Success: true,
		Context: "## Memory Context\n\nNo memories loaded.\n",
		Entries: []engine.MemorySummary{},
	}
	require.NoError(t, render(&buf, resp, "yaml"))

	out := buf.String()
	assert.Equal(t, 0, bytes.Index(buf.Bytes(), []byte("success: true\n")), out)
	assert.Contains(t, out, "context: |\n")
	assert.Contains(t, out, "entries: []\n")

	buf.Reset()
	require.NoError(t, render(&buf, engine.DeleteResponse{Success: true, Deleted: "true"}, "yaml"))
	assert.Contains(t, buf.String(), `deleted: "true"`)
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := render(&buf, engine.Failure(assert.AnError), "xml")
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}
