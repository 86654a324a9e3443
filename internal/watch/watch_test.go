package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studyparse/internal/dispatch"
)

const firstCard = "**TARJETA #1**\n**PREGUNTA:** ¿Qué es el ADN?\n**RESPUESTA:** Material genético.\n"
const secondCard = "**TARJETA #2**\n**PREGUNTA:** ¿Qué es el ARN?\n**RESPUESTA:** Un ácido nucleico.\n"

func TestRefreshReportsOnlyChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respuesta.md")
	require.NoError(t, os.WriteFile(path, []byte(firstCard+"**TARJETA #2**\n**PREGUNTA:** ¿Qué"), 0o644))

	var got []dispatch.Extraction
	f := &follower{path: path, fn: func(e dispatch.Extraction) { got = append(got, e) }}

	changed, err := f.refresh()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Flashcards, 1, "the trailing partial card is not reported")

	changed, err = f.refresh()
	require.NoError(t, err)
	assert.False(t, changed, "an unchanged file is not reported again")

	require.NoError(t, os.WriteFile(path, []byte(firstCard+secondCard), 0o644))
	changed, err = f.refresh()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, got, 2)
	assert.Len(t, got[1].Flashcards, 2)
	assert.Equal(t, got[0].Flashcards[0], got[1].Flashcards[0], "earlier records are stable")
}

func TestRefreshMissingFile(t *testing.T) {
	f := &follower{path: filepath.Join(t.TempDir(), "nada.md"), fn: func(dispatch.Extraction) {}}
	_, err := f.refresh()
	assert.Error(t, err)
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respuesta.md")
	require.NoError(t, os.WriteFile(path, []byte(firstCard), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan dispatch.Extraction, 4)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, "", 20*time.Millisecond, func(e dispatch.Extraction) { updates <- e })
	}()

	select {
	case e := <-updates:
		assert.Len(t, e.Flashcards, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial extraction")
	}

	require.NoError(t, os.WriteFile(path, []byte(firstCard+secondCard), 0o644))

	select {
	case e := <-updates:
		assert.Len(t, e.Flashcards, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("no extraction after the file grew")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop on cancel")
	}
}
