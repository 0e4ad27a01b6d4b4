package yomitan

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
)

const testIndex = `{"title":"JMdict","format":3,"revision":"jmdict1","sequenced":true,"author":"EDRDG"}`

// writeArchive zips members into a file under t.TempDir.
func writeArchive(t *testing.T, members map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "dict.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReadArchive_Format3(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"index.json":       testIndex,
		"term_bank_1.json": `[
			["見る","みる","v1 P","v1",100,["to see","to look at"],1259290,"P"],
			["観る","みる","","v1",50,[{"type":"structured-content","content":{"tag":"span","content":"to watch"}}],1259291,""]
		]`,
		"term_bank_2.json": `[["走る","はしる",null,"v5",80,["to run"],1,""]]`,
		"tag_bank_1.json":  `[["v1","partOfSpeech",0,"Ichidan verb",0],["P","popular",-10,"popular term",10]]`,
	})

	b, err := ReadArchive(path)
	require.NoError(t, err)

	assert.Equal(t, term.DictionaryInfo{Title: "JMdict", Format: 3, Revision: "jmdict1", Sequenced: true, Author: "EDRDG"}, b.Info)
	require.Len(t, b.Terms, 3)

	first := b.Terms[0]
	assert.Equal(t, "見る", first.Expression)
	assert.Equal(t, "みる", first.Reading)
	assert.Equal(t, []string{"v1", "P"}, first.Tags)
	assert.Equal(t, []string{"v1"}, first.Rules)
	assert.Equal(t, 100, first.Score)
	assert.Equal(t, []term.Glossary{term.Text("to see"), term.Text("to look at")}, first.Glossary)
	assert.Equal(t, 1259290, first.Sequence)
	assert.Equal(t, []string{"P"}, first.TermTags)
	assert.Equal(t, "JMdict", first.Dictionary)

	assert.Equal(t, []term.Glossary{term.Node("span", "", term.Text("to watch"))}, b.Terms[1].Glossary)
	assert.Equal(t, "走る", b.Terms[2].Expression)
	assert.Empty(t, b.Terms[2].Tags)

	require.Len(t, b.Tags, 2)
	assert.Equal(t, "P", b.Tags[1].Name)
	assert.Equal(t, -10, b.Tags[1].Order)
	assert.Equal(t, 10.0, b.Tags[1].Score)
}

func TestReadArchive_Format1(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"index.json":       `{"title":"old","version":1,"revision":"r1"}`,
		"term_bank_1.json": `[["食べる","たべる","v1","v1",0,"to eat","to live on"]]`,
	})

	b, err := ReadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Info.Format)
	require.Len(t, b.Terms, 1)
	assert.Equal(t, []term.Glossary{term.Text("to eat"), term.Text("to live on")}, b.Terms[0].Glossary)
}

func TestReadArchive_BankOrder(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"index.json":            testIndex,
		"term_bank_10.json":     `[["十","じゅう","","",0,["ten"]]]`,
		"term_bank_2.json":      `[["二","に","","",0,["two"]]]`,
		"term_bank_1.json":      `[["一","いち","","",0,["one"]]]`,
		"term_meta_bank_1.json": `[["一","freq",1]]`,
	})

	b, err := ReadArchive(path)
	require.NoError(t, err)
	var got []string
	for _, e := range b.Terms {
		got = append(got, e.Expression)
	}
	assert.Equal(t, []string{"一", "二", "十"}, got)
}

func TestReadArchive_EmptyReadingDefaultsToExpression(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"index.json":       testIndex,
		"term_bank_1.json": `[["すごい","","adj-i","adj-i",0,["amazing"]]]`,
	})

	b, err := ReadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, "すごい", b.Terms[0].Reading)
}

func TestReadArchive_Errors(t *testing.T) {
	tests := []struct {
		name    string
		members map[string]string
		target  error
		field   string
	}{
		{
			name:    "missing index",
			members: map[string]string{"term_bank_1.json": `[]`},
			target:  ErrInvalidArchive,
		},
		{
			name:    "missing title",
			members: map[string]string{"index.json": `{"format":3}`},
			target:  ErrInvalidRecord,
			field:   "title",
		},
		{
			name:    "unsupported format",
			members: map[string]string{"index.json": `{"title":"x","format":9}`},
			target:  ErrInvalidRecord,
			field:   "format",
		},
		{
			name:    "short row",
			members: map[string]string{"index.json": testIndex, "term_bank_1.json": `[["見る","みる"]]`},
			target:  ErrInvalidRecord,
			field:   "row",
		},
		{
			name:    "empty headword",
			members: map[string]string{"index.json": testIndex, "term_bank_1.json": `[["","","","",0,["x"]]]`},
			target:  ErrInvalidRecord,
			field:   "expression",
		},
		{
			name:    "bad score",
			members: map[string]string{"index.json": testIndex, "term_bank_1.json": `[["見る","みる","","","high",["x"]]]`},
			target:  ErrInvalidRecord,
			field:   "score",
		},
		{
			name:    "bad tag row",
			members: map[string]string{"index.json": testIndex, "tag_bank_1.json": `[["v1","pos"]]`},
			target:  ErrInvalidRecord,
			field:   "row",
		},
		{
			name:    "malformed json",
			members: map[string]string{"index.json": testIndex, "term_bank_1.json": `[[`},
			target:  ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchive(writeArchive(t, tt.members))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			if tt.field != "" {
				var re *RecordError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.field, re.Field)
			}
		})
	}
}

func TestReadArchive_NotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ReadArchive(path)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestReadArchiveFrom(t *testing.T) {
	data, err := os.ReadFile(writeArchive(t, map[string]string{
		"index.json":       testIndex,
		"term_bank_1.json": `[["見る","みる","","v1",0,["to see"]]]`,
	}))
	require.NoError(t, err)

	b, err := ReadArchiveFrom(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, b.Terms, 1)
}

func TestRecordError_Message(t *testing.T) {
	err := recordError("term_bank_1.json", 3, "score", "expected number")
	assert.Equal(t, "term_bank_1.json[3]: score: expected number", err.Error())

	err = recordError("index.json", -1, "title", "required")
	assert.Equal(t, "index.json: title: required", err.Error())
}
