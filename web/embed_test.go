package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplatesRenderFormAndResult(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	var blank bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&blank, "index.html", map[string]any{}))
	require.Contains(t, blank.String(), `name="bloodGlucoseLevel"`)
	require.NotContains(t, blank.String(), `role="alert"`)

	var result bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&result, "index.html", map[string]any{
		"Result": "You are at risk of diabetes",
		"Class":  "danger",
	}))
	require.Contains(t, result.String(), "alert-danger")

	require.NotNil(t, tmpl.Lookup("error.html"))
}
