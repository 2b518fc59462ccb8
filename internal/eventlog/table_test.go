package eventlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTablePadsRaggedRows(t *testing.T) {
	table, err := ParseTable([]string{
		"Player position,1.0,0.5",
		"Event Executed, 2.0 ,LeftImage,Spider_01.png",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{ColEventType, ColTimeStamp, ColEventData, ColDetail1}, table.Columns)
	assert.Equal(t, [][]string{
		{"Player position", "1.0", "0.5", ""},
		{"Event Executed", "2.0", "LeftImage", "Spider_01.png"},
	}, table.Rows)
	assert.Zero(t, table.SkippedRows)
}

func TestParseTableDropsEmptyColumns(t *testing.T) {
	table, err := ParseTable([]string{"a,,b", "c,,d"})
	require.NoError(t, err)

	assert.Equal(t, []string{ColEventType, ColTimeStamp}, table.Columns)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, table.Rows)
}

func TestParseTableNamesExtraColumns(t *testing.T) {
	fields := make([]string, 16)
	for i := range fields {
		fields[i] = "v"
	}
	table, err := ParseTable([]string{strings.Join(fields, ",")})
	require.NoError(t, err)

	require.Len(t, table.Columns, 16)
	assert.Equal(t, CanonicalColumns, table.Columns[:14])
	assert.Equal(t, []string{"Extra15", "Extra16"}, table.Columns[14:])

	idx, ok := table.Column("Detail11")
	assert.True(t, ok)
	assert.Equal(t, 13, idx)
}

func TestParseTableSkipsMalformedRecords(t *testing.T) {
	table, err := ParseTable([]string{
		"Player position,1.0,0.5",
		`Player position,"1.1,0.6`,
		`Player position,1"2,0.7`,
		`Event Executed,1.3,"LeftImage","Spider, big"`,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, table.SkippedRows)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Spider, big", table.Rows[1][3])
}

func TestParseTableAllRejected(t *testing.T) {
	_, err := ParseTable([]string{`a,"b,c`, `d,e"f,g`})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, KindParse, KindOf(err))
}

func TestTableRecords(t *testing.T) {
	table, err := ParseTable([]string{
		"Event Executed,1.0,RightImage,Neutral_03.png,extra",
		"Player position,1.1,0.4,,",
	})
	require.NoError(t, err)

	records := table.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Event Executed", records[0].EventType)
	assert.Equal(t, "RightImage", records[0].EventData)
	assert.Equal(t, "Neutral_03.png", records[0].Detail1())
	assert.Equal(t, []string{"Neutral_03.png", "extra"}, records[0].Details)
	assert.Equal(t, "", records[1].Detail1())
}

func TestParseWithHeaderKeepsHeaderOutOfRows(t *testing.T) {
	table, err := ParseWithHeader("Player position,0,0.9", []string{
		"Player position,1,0.4",
		"Player position,2,0.2",
	})
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1", table.Rows[0][1])
	assert.Equal(t, []string{ColEventType, ColTimeStamp, ColEventData}, table.Columns)
}

func TestParseWithHeaderWidthPadsRows(t *testing.T) {
	table, err := ParseWithHeader("Player position,0,0.9,Spider", []string{
		"Event Executed,1,LeftImage",
		"Player position,2,0.2",
	})
	require.NoError(t, err)

	// The padded Detail1 column is empty in every record and is dropped.
	assert.Equal(t, []string{ColEventType, ColTimeStamp, ColEventData}, table.Columns)
	for _, row := range table.Rows {
		assert.Len(t, row, 3)
	}
}
