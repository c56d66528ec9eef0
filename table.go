package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mymusic/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderTracks(tracks []models.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Name, t.ArtistNames(), t.Album.Name, formatDuration(t.Duration)})
	}
	return renderTable(
		[]string{"#", "Track", "Artists", "Album", "Length"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func renderAlbums(albums []models.SimplifiedAlbum) string {
	rows := make([][]string, 0, len(albums))
	for _, a := range albums {
		names := make([]string, 0, len(a.Artists))
		for _, artist := range a.Artists {
			names = append(names, artist.Name)
		}
		rows = append(rows, []string{a.Name, strings.Join(names, ", "), a.Type.DisplayName(), a.ReleaseDate, a.ID})
	}
	return renderTable([]string{"Album", "Artists", "Type", "Released", "ID"}, rows, nil)
}

func renderAlbumTracks(album models.Album) string {
	rows := make([][]string, 0, len(album.Tracks))
	for _, t := range album.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(t.DiscNumber) + "-" + strconv.Itoa(t.TrackNumber),
			t.Name,
			formatDuration(t.Duration),
		})
	}
	return renderTable(
		[]string{"#", "Track", "Length"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
	)
}
