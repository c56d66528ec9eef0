package pages

import (
	"fmt"
	"html/template"
	"time"
)

const ListenNowName = "listen-now"

var listenNow = `
<!DOCTYPE html>
<html>
<head>
    <title>Listen Now</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 960px;
            margin: 0 auto;
            padding: 20px;
        }
        .row {
            display: flex;
            gap: 16px;
            overflow-x: auto;
        }
        .card {
            width: 160px;
            flex: none;
        }
        .card img {
            width: 160px;
            height: 160px;
            object-fit: cover;
        }
        .muted {
            color: #777;
            font-size: 0.9em;
        }
    </style>
</head>
<body>
    <h1>Listen Now</h1>
    {{if .Loading}}<p class="muted">Loading...</p>{{end}}

    <h2>Top Picks</h2>
    <div class="row">
    {{range .TopPicks}}
        <a class="card" href="/api/tracks/{{.ID}}">
            <img src="{{.ImageURL}}" alt="{{.Album.Name}}">
            <div>{{.Name}}{{if .Explicit}} <span class="muted">E</span>{{end}}</div>
            <div class="muted">{{.ArtistNames}} &middot; {{duration .Duration}}</div>
        </a>
    {{else}}
        <p class="muted">Nothing here yet.</p>
    {{end}}
    </div>

    <h2>Recently Played</h2>
    <div class="row">
    {{range .RecentlyPlayed}}
        <a class="card" href="/api/tracks/{{.ID}}">
            <img src="{{.ImageURL}}" alt="{{.Album.Name}}">
            <div>{{.Name}}</div>
            <div class="muted">{{.ArtistNames}}</div>
        </a>
    {{end}}
    </div>

    {{range .MoreLikeArtists}}
    <h2>More like {{.Artist.Name}}</h2>
    <div class="row">
        {{range .Tracks}}
        <a class="card" href="/api/albums/{{.Album.ID}}">
            <img src="{{.ImageURL}}" alt="{{.Album.Name}}">
            <div>{{.Album.Name}}</div>
            <div class="muted">{{.Album.Type.DisplayName}}</div>
        </a>
        {{end}}
    </div>
    {{end}}
</body>
</html>`

// FormatDuration renders a track length as m:ss.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Templates returns the parsed HTML pages, each under its page name.
func Templates() *template.Template {
	return template.Must(template.New(ListenNowName).
		Funcs(template.FuncMap{"duration": FormatDuration}).
		Parse(listenNow))
}
