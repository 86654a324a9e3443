package storage

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studyparse/internal/domain"
)

var testNow = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.Now = func() time.Time { return testNow }
	t.Cleanup(func() { db.Close() })
	return db
}

func testItem(hash string, ct domain.ContentType) Item {
	return Item{
		Hash:        hash,
		ContentType: ct,
		Title:       "¿Qué es " + hash + "?",
		Topic:       "Biología",
		Payload:     json.RawMessage(`{"question":"q","answer":"a"}`),
	}
}

func TestItems(t *testing.T) {
	db := openTestDB(t)

	sourceID, err := db.InsertSource("/notas", SourceLocal)
	require.NoError(t, err)

	require.NoError(t, db.InsertItem(testItem("a", domain.Flashcards), sourceID))
	require.NoError(t, db.InsertItem(testItem("b", domain.Quiz), 0))
	assert.Error(t, db.InsertItem(testItem("a", domain.Flashcards), sourceID), "duplicate hash must be rejected")

	it, err := db.FindItemByHash("a")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, domain.Flashcards, it.ContentType)
	assert.Equal(t, "Biología", it.Topic)
	assert.JSONEq(t, `{"question":"q","answer":"a"}`, string(it.Payload))
	assert.True(t, it.DueDate.Equal(testNow))
	assert.False(t, it.LastReview.Valid)
	assert.Equal(t, sql.NullInt64{Int64: sourceID, Valid: true}, it.SourceID)

	missing, err := db.FindItemByHash("zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	direct, err := db.FindItemByHash("b")
	require.NoError(t, err)
	assert.False(t, direct.SourceID.Valid)

	all, err := db.ListItems("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	quiz, err := db.ListItems(domain.Quiz)
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	assert.Equal(t, "b", quiz[0].Hash)

	bySource, err := db.GetItemsBySourceID(sourceID)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "a", bySource[0].Hash)

	require.NoError(t, db.DeleteItemByHash("a"))
	gone, err := db.FindItemByHash("a")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDueItemsAndReviewState(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertItem(testItem("a", domain.Flashcards), 0))
	require.NoError(t, db.InsertItem(testItem("b", domain.Flashcards), 0))

	due, err := db.DueItems(testNow, 0)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	it, err := db.FindItemByHash("a")
	require.NoError(t, err)
	it.Stability = 4
	it.Difficulty = 5
	it.DueDate = testNow.Add(4 * 24 * time.Hour)
	it.LastReview = sql.NullTime{Time: testNow, Valid: true}
	it.State = 2
	require.NoError(t, db.UpdateItemState(it))

	due, err = db.DueItems(testNow, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "b", due[0].Hash)

	later, err := db.DueItems(testNow.Add(5*24*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, later, 1, "limit must cap the result")
	assert.Equal(t, "b", later[0].Hash, "most overdue first")

	updated, err := db.FindItemByHash("a")
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.Stability)
	assert.Equal(t, 2, updated.State)
	assert.True(t, updated.LastReview.Valid)
	assert.True(t, updated.LastReview.Time.Equal(testNow))
}

func TestReviewLogs(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.InsertReviewLog(domain.ReviewLog{ItemHash: "a", Timestamp: testNow, Grade: 3}))
	require.NoError(t, db.InsertReviewLog(domain.ReviewLog{ItemHash: "a", Timestamp: testNow.Add(time.Hour), Grade: 1}))
	require.NoError(t, db.InsertReviewLog(domain.ReviewLog{ItemHash: "b", Timestamp: testNow, Grade: 4}))

	logs, err := db.ReviewLogs("a")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 3, logs[0].Grade)
	assert.Equal(t, 1, logs[1].Grade)
	assert.True(t, logs[1].Timestamp.Equal(testNow.Add(time.Hour)))
}

func TestSources(t *testing.T) {
	db := openTestDB(t)

	localID, err := db.InsertSource("/notas", SourceLocal)
	require.NoError(t, err)
	gitID, err := db.InsertSource("https://example.com/notas.git", SourceGit)
	require.NoError(t, err)

	_, err = db.InsertSource("/notas", SourceLocal)
	assert.Error(t, err, "paths are unique")

	s, err := db.FindSourceByPath("https://example.com/notas.git")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, gitID, s.ID)
	assert.Equal(t, SourceGit, s.Type)
	assert.False(t, s.LastScanned.Valid)

	none, err := db.FindSourceByPath("/otro")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, db.UpdateSourceLastScanned(localID))
	all, err := db.GetAllSources()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/notas", all[0].Path)
	assert.True(t, all[0].LastScanned.Valid)

	require.NoError(t, db.InsertItem(testItem("a", domain.Flashcards), localID))
	require.NoError(t, db.InsertItem(testItem("b", domain.Flashcards), 0))
	require.NoError(t, db.DeleteSource(localID))

	gone, err := db.FindItemByHash("a")
	require.NoError(t, err)
	assert.Nil(t, gone, "items of a deleted source are deleted with it")
	kept, err := db.FindItemByHash("b")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	assert.ErrorIs(t, db.DeleteSource(localID), ErrNotFound)
}
