package engine

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_podcast/internal/engine/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	store := newTestEngine(t, &scriptedLLM{}, 5, 10)
	seedEpisodes(t, store, 2)
	require.NoError(t, store.SetCategory(context.Background(), "ep1", "Tech"))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	got, n, err := ExportCatalog(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two episodes")
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, "Podcast", rows[0][1])

	var titles, cats []string
	for _, row := range rows[1:] {
		titles = append(titles, row[0])
		cats = append(cats, row[2])
	}
	assert.Contains(t, titles, "Episode 1")
	assert.Contains(t, titles, "Episode 2")
	assert.Contains(t, cats, "Tech")
}

func TestExportCSV(t *testing.T) {
	store := newTestEngine(t, &scriptedLLM{}, 5, 10)
	seedEpisodes(t, store, 1)

	path := filepath.Join(t.TempDir(), "out.csv")
	_, n, err := ExportCatalog(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := os.Open(path)
	require.NoError(t, err)
	defer raw.Close()

	recs, err := csv.NewReader(raw).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, exportHeaders, recs[0])
	assert.Equal(t, "Episode 1", recs[1][0])
}

func TestExportDefaultName(t *testing.T) {
	store := newTestEngine(t, &scriptedLLM{}, 5, 10)
	seedEpisodes(t, store, 1)

	t.Chdir(t.TempDir())

	path, _, err := ExportCatalog(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "podcasts_"))
	assert.True(t, strings.HasSuffix(path, ".xlsx"))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestExportFiltersByPlaylist(t *testing.T) {
	store := newTestEngine(t, &scriptedLLM{}, 5, 10)
	seedEpisodes(t, store, 2) // playlist P1
	_, err := store.UpsertEpisodes(context.Background(), "P2", []catalog.Episode{
		{ID: "other", Title: "Elsewhere", AddedAt: time.Now()},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "p2.csv")
	_, n, err := ExportCatalog(context.Background(), path, "P2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
