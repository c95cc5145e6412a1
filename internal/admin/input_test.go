package admin

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPassword_Piped(t *testing.T) {
	var out bytes.Buffer
	pw, err := GetPassword(strings.NewReader("s3cret\r\nignored\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Empty(t, out.String())
}

func TestGetPassword_PipedWithoutNewline(t *testing.T) {
	pw, err := GetPassword(strings.NewReader("last"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "last", string(pw))
}

func TestGetPassword_EmptyInput(t *testing.T) {
	_, err := GetPassword(strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetPassword_Terminal(t *testing.T) {
	oldRead, oldTerm := readPassword, isTerminal
	defer func() { readPassword, isTerminal = oldRead, oldTerm }()
	isTerminal = func(int) bool { return true }

	t.Run("ok", func(t *testing.T) {
		readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }
		var out bytes.Buffer
		pw, err := GetPassword(os.Stdin, &out)
		require.NoError(t, err)
		assert.Equal(t, "typed", string(pw))
		assert.Equal(t, "Enter password: \n", out.String())
	})

	t.Run("error", func(t *testing.T) {
		readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
		_, err := GetPassword(os.Stdin, &bytes.Buffer{})
		require.Error(t, err)
	})
}
