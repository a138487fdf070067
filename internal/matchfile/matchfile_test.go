package matchfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guibot-go/guibot/internal/finder"
	"github.com/guibot-go/guibot/internal/imagelog"
	"github.com/guibot-go/guibot/internal/testutil"
)

func TestWriteGoldenFormat(t *testing.T) {
	doc := NewDocument()
	find := doc.AddSection("find")
	find.Set("backend", "template")
	find.Set("similarity", "0.8")
	chain := doc.AddSection("chain")
	chain.Set("length", "3")

	var out strings.Builder
	require.NoError(t, Write(&out, doc))

	testutil.Golden(t, "write_format", []byte(out.String()))
}

func TestReadWriteRoundTrip(t *testing.T) {
	src := "[find]\nbackend = autopy\nsimilarity = <value='0.800000' min='0.000000' max='1.000000' delta='0.100000' tolerance='0.010000' fixed='False' enumerated='False'>\n"
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	sec, ok := doc.Section("find")
	require.True(t, ok)
	backend, ok := sec.Get("backend")
	require.True(t, ok)
	assert.Equal(t, "autopy", backend)

	var out strings.Builder
	require.NoError(t, Write(&out, doc))

	doc2, err := Read(strings.NewReader(out.String()))
	require.NoError(t, err)
	sec2, ok := doc2.Section("find")
	require.True(t, ok)
	assert.Equal(t, sec.Keys(), sec2.Keys())
	for _, k := range sec.Keys() {
		v1, _ := sec.Get(k)
		v2, _ := sec2.Get(k)
		assert.Equal(t, v1, v2)
	}
}

func TestReadKeyOutsideSectionFails(t *testing.T) {
	_, err := Read(strings.NewReader("similarity = 0.8\n"))
	assert.Error(t, err)
}

func TestReadIgnoresCommentsAndBlankLines(t *testing.T) {
	src := "# a comment\n\n[find]\n; another comment\nbackend = template\n"
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	sec, ok := doc.Section("find")
	require.True(t, ok)
	backend, _ := sec.Get("backend")
	assert.Equal(t, "template", backend)
}

func TestFinderRoundTripPreservesParams(t *testing.T) {
	log := imagelog.New(t.TempDir(), imagelog.LevelDebug, 4)
	f := finder.NewAutoPyFinder(log)
	cat, ok := f.Settings().Category("find")
	require.True(t, ok)
	p, ok := cat.Param("similarity")
	require.True(t, ok)
	p.Delta = 0.2
	cat.SetParam("similarity", p)

	var buf strings.Builder
	require.NoError(t, SaveFinder(&buf, f))

	registry := finder.NewRegistry()
	loaded, err := LoadFinder(strings.NewReader(buf.String()), registry, log)
	require.NoError(t, err)

	loadedCat, ok := loaded.Settings().Category("find")
	require.True(t, ok)
	loadedParam, ok := loadedCat.Param("similarity")
	require.True(t, ok)
	assert.True(t, p.Equal(loadedParam))
}

func TestLoadFinderUnsupportedBackend(t *testing.T) {
	log := imagelog.New(t.TempDir(), imagelog.LevelDebug, 4)
	registry := finder.NewRegistry()
	src := "[find]\nbackend = not-a-real-backend\n"
	_, err := LoadFinder(strings.NewReader(src), registry, log)
	assert.ErrorIs(t, err, finder.ErrUnsupportedBackend)
}

func TestLoadFinderMissingFindSection(t *testing.T) {
	log := imagelog.New(t.TempDir(), imagelog.LevelDebug, 4)
	registry := finder.NewRegistry()
	_, err := LoadFinder(strings.NewReader("[other]\nbackend = x\n"), registry, log)
	assert.Error(t, err)
}
