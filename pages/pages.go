package pages

import (
	"html/template"
	"io"
)

// NowPlaying is the data behind the now-playing page.
type NowPlaying struct {
	Title    string
	Album    string
	Desc     string
	Image    string
	BgColour string
	Elapsed  string
	Total    string
	Fill     float64
	Playing  bool
	Tracks   []Entry
}

type Entry struct {
	ID       string
	Name     string
	Album    string
	Duration string
	Current  bool
}

var nowPlaying = template.Must(template.New("now-playing").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{if .Title}}{{.Title}} · {{end}}musicstream</title>
    <meta http-equiv="refresh" content="5">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            color: #fff;
            background: {{if .BgColour}}{{.BgColour}}{{else}}#121212{{end}};
        }
        .bar {
            height: 4px;
            background: #535353;
            border-radius: 2px;
        }
        .fill {
            height: 4px;
            background: #1db954;
            border-radius: 2px;
        }
        .current {
            font-weight: bold;
        }
        img {
            max-width: 160px;
        }
    </style>
</head>
<body>
{{if .Title}}
    {{if .Image}}<img src="{{.Image}}" alt="">{{end}}
    <h1>{{.Title}}</h1>
    <p>{{.Album}}{{if .Desc}} · {{.Desc}}{{end}}</p>
    <p>{{if .Playing}}Playing{{else}}Paused{{end}} {{.Elapsed}} / {{.Total}}</p>
    <div class="bar"><div class="fill" style="width: {{printf "%.1f" .Fill}}%"></div></div>
{{else}}
    <h1>Nothing playing</h1>
{{end}}
    <ol>
    {{range .Tracks}}
        <li{{if .Current}} class="current"{{end}}>{{.Name}}{{if .Album}} · {{.Album}}{{end}} {{.Duration}}</li>
    {{end}}
    </ol>
</body>
</html>`))

func RenderNowPlaying(w io.Writer, data NowPlaying) error {
	return nowPlaying.Execute(w, data)
}
