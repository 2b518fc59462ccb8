// Package views renders the upload form and the analysis report.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const echartsURL = "https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"

// Layout wraps the children from the context in the page chrome.
func Layout(title, cspNonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<script src="%s" nonce="%s"></script>
</head>
<body>
<header><h1>%s</h1><a href="/">New analysis</a></header>
<main>
`, templ.EscapeString(title), echartsURL, templ.EscapeString(cspNonce), templ.EscapeString(title))
		if err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

// Upload is the multi-file upload form.
func Upload() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section>
<p>Choose one or more approach-avoidance task logs (CSV).</p>
<form method="post" action="/analyze" enctype="multipart/form-data">
<input type="file" name="files" accept=".csv,text/csv" multiple required>
<button type="submit">Analyze</button>
</form>
</section>
`)
		return err
	})
}
