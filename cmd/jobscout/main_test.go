package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/pkg/jwt"
)

func TestParseResumeCmd_Stdin(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("Jane Doe\njane.doe@example.com\nSkills: Go, PostgreSQL, Docker\n"))
	root.SetArgs([]string{"parse-resume"})

	require.NoError(t, root.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "jane.doe@example.com", got["email"])
	assert.Contains(t, got["skills"], "Go")
}

func TestParseResumeCmd_EmptyInput(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("   \n"))
	root.SetArgs([]string{"parse-resume"})

	require.NoError(t, root.Execute())
	assert.JSONEq(t, `{"skills":[]}`, out.String())
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "local-secret")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--user", "8d0f4a7e-6b2c-4f7a-9a11-2f1c3d4e5f60", "--role", "admin"})

	require.NoError(t, root.Execute())

	claims, err := jwt.NewHMACService("local-secret", time.Hour).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "8d0f4a7e-6b2c-4f7a-9a11-2f1c3d4e5f60", claims.UserID.String())
	assert.True(t, claims.IsAdmin())
}

func TestReembedCmd_RejectsUnknownKind(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"reembed", "--kind", "company"})

	assert.ErrorContains(t, root.Execute(), "unknown owner kind")
}
