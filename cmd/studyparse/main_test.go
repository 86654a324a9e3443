package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/conorfennell/studyparse/internal/dispatch"
	"github.com/conorfennell/studyparse/internal/fsrs"
	"github.com/conorfennell/studyparse/internal/ingest"
	"github.com/conorfennell/studyparse/internal/storage"
)

const cards = `**TARJETA #1**
**PREGUNTA:** ¿Qué es un ecosistema?
**RESPUESTA:** Seres vivos y su entorno físico.

**TARJETA #2**
**PREGUNTA:** ¿Qué es un productor?
**RESPUESTA:** Un organismo que fabrica su propio alimento.
`

const plan = `📅 **DÍA 1 - Lunes**
- Leer el tema 1
**Objetivo:** Primera lectura

📅 **DÍA 3 - Miércoles**
- Hacer un esquema

📅 **DÍA 7 - Domingo**
- Autoevaluación`

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestExtractStdin(t *testing.T) {
	out, err := runCmd(t, cards, "extract")
	require.NoError(t, err)

	var e dispatch.Extraction
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	require.Len(t, e.Flashcards, 2)
	assert.Equal(t, "Seres vivos y su entorno físico.", e.Flashcards[0].Answer)
}

func TestExtractFileAsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respuesta.md")
	require.NoError(t, os.WriteFile(path, []byte(cards), 0o644))

	out, err := runCmd(t, "", "extract", "-f", "yaml", path)
	require.NoError(t, err)

	var e dispatch.Extraction
	require.NoError(t, yaml.Unmarshal([]byte(out), &e))
	require.Len(t, e.Flashcards, 2)
	assert.Equal(t, "¿Qué es un productor?", e.Flashcards[1].Question)
}

func TestExtractInputErrors(t *testing.T) {
	_, err := runCmd(t, cards, "extract", "--max-input-bytes", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than 10 bytes")

	_, err = runCmd(t, "", "extract", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestLibraryCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	_, err := runCmd(t, cards, "extract", "--save", "--db", db)
	require.NoError(t, err)

	out, err := runCmd(t, "", "due", "--db", db)
	require.NoError(t, err)
	var due []ingest.ItemView
	require.NoError(t, json.Unmarshal([]byte(out), &due))
	require.Len(t, due, 2)

	out, err = runCmd(t, "", "review", "--db", db, due[0].Hash, "3")
	require.NoError(t, err)
	var reviewed ingest.ItemView
	require.NoError(t, json.Unmarshal([]byte(out), &reviewed))
	assert.Equal(t, ingest.StateReview, reviewed.State)
	assert.True(t, reviewed.Due.After(time.Now()))

	out, err = runCmd(t, "", "due", "--db", db)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &due))
	assert.Len(t, due, 1)

	_, err = runCmd(t, "", "review", "--db", db, due[0].Hash, "9")
	assert.Error(t, err)
	_, err = runCmd(t, "", "review", "--db", db, "missing", "3")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = runCmd(t, "", "review", "--db", db, due[0].Hash)
	assert.Error(t, err)
}

func TestSourceCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")
	repos := filepath.Join(t.TempDir(), "repos")
	notes := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(notes, "ecologia.md"), []byte(cards), 0o644))

	out, err := runCmd(t, "", "add-source", "--db", db, notes)
	require.NoError(t, err)
	var src storage.Source
	require.NoError(t, json.Unmarshal([]byte(out), &src))
	assert.Equal(t, storage.SourceLocal, src.Type)

	out, err = runCmd(t, "", "sync", "--db", db, "--repos-dir", repos)
	require.NoError(t, err)
	var report ingest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, ingest.Report{Sources: 1, Parsed: 2, Inserted: 2}, report)
}

func TestCalendar(t *testing.T) {
	out, err := runCmd(t, plan, "calendar", "--start", "2026-03-02")
	require.NoError(t, err)

	var c struct {
		Plan []fsrs.ScheduledSession `json:"plan"`
		Due  []fsrs.ScheduledSession `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	require.Len(t, c.Plan, 3)
	assert.Equal(t, 7, c.Plan[2].Day)
	assert.Equal(t, "2026-03-08", c.Plan[2].Date.Format(time.DateOnly))
	assert.Len(t, c.Due, 3, "a plan starting in the past is all due")

	_, err = runCmd(t, cards, "calendar")
	assert.Error(t, err)
	_, err = runCmd(t, plan, "calendar", "--start", "mañana")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	_, err := runCmd(t, "", "desconocido")
	assert.Error(t, err)

	_, err = runCmd(t, "")
	assert.Error(t, err)

	out, err := runCmd(t, "", "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "--db")

	_, err = runCmd(t, "", "watch")
	assert.Error(t, err)
}
