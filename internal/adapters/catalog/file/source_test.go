package file_test

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/catalog/file"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
)

func TestNewSource(t *testing.T) {
	t.Run("Valid Config", func(t *testing.T) {
		s, err := file.NewSource(file.Config{Path: "drivers.txt"}, afero.NewMemMapFs(), log.Discard())
		require.NoError(t, err)
		assert.Equal(t, "drivers.txt", s.Name())
	})

	t.Run("Empty Path", func(t *testing.T) {
		s, err := file.NewSource(file.Config{}, afero.NewMemMapFs(), log.Discard())
		require.Error(t, err)
		assert.Nil(t, s)
		assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
	})
}

func TestSource_Lines(t *testing.T) {
	ctx := context.Background()

	t.Run("Numbers every line", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := "\ufeff# QMK drivers\r\nwinusb,A,1,1,{G1}\r\n\nlibusbk,B,2,2,{G2}"
		require.NoError(t, afero.WriteFile(fs, "drivers.txt", []byte(content), 0o644))

		s, err := file.NewSource(file.Config{Path: "drivers.txt"}, fs, log.Discard())
		require.NoError(t, err)

		lines, err := s.Lines(ctx)
		require.NoError(t, err)
		assert.Equal(t, []ports.CatalogLine{
			{Number: 1, Text: "# QMK drivers"},
			{Number: 2, Text: "winusb,A,1,1,{G1}"},
			{Number: 3, Text: ""},
			{Number: 4, Text: "libusbk,B,2,2,{G2}"},
		}, lines)
	})

	t.Run("Missing File", func(t *testing.T) {
		s, err := file.NewSource(file.Config{Path: "nope.txt"}, afero.NewMemMapFs(), log.Discard())
		require.NoError(t, err)

		_, err = s.Lines(ctx)
		require.Error(t, err)
		assert.Equal(t, errors.CodeCatalogReadError, errors.GetCode(err))
		msg, _, ok := errors.GetUserFacingMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "Could not open nope.txt", msg)
	})

	t.Run("Line Too Long", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "drivers.txt", []byte(strings.Repeat("a", 70*1024)), 0o644))
		s, _ := file.NewSource(file.Config{Path: "drivers.txt"}, fs, log.Discard())

		_, err := s.Lines(ctx)
		require.Error(t, err)
		assert.Equal(t, errors.CodeCatalogReadError, errors.GetCode(err))
	})
}
