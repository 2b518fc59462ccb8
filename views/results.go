package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"aat-go/internal/analysis"
	"aat-go/internal/summary"
)

// FileReport is one file's section of the report.
type FileReport struct {
	Result          *analysis.FileResult
	ApproachSummary []summary.GroupStats
	SpeedSummary    []summary.GroupStats
}

// Report is everything the results page shows. Chart options are the
// serialized echarts configuration.
type Report struct {
	Batch         *analysis.BatchResult
	Files         []FileReport
	ApproachChart string
	SpeedChart    string
	StoredRunURL  string
}

var outcomeText = map[analysis.Outcome]string{
	analysis.OutcomeFull:    "All files were analyzed.",
	analysis.OutcomePartial: "Some files could not be analyzed; the combined results only include the others.",
	analysis.OutcomeNone:    "No file could be analyzed.",
}

// Results renders the per-file and combined statistics.
func Results(r Report, cspNonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section id="outcome">`)
		fmt.Fprintf(&b, `<p class="outcome-%s">%s</p>`, r.Batch.Outcome, templ.EscapeString(outcomeText[r.Batch.Outcome]))
		fmt.Fprintf(&b, `<p>%d succeeded, %d failed. Run %s`, r.Batch.Succeeded, r.Batch.Failed, templ.EscapeString(r.Batch.RunID))
		if r.StoredRunURL != "" {
			fmt.Fprintf(&b, ` (<a href="%s">stored</a>)`, templ.EscapeString(r.StoredRunURL))
		}
		b.WriteString("</p></section>\n")

		for _, f := range r.Files {
			writeFile(&b, f)
		}

		if r.Batch.Succeeded > 0 {
			b.WriteString(`<section id="combined"><h2>Combined results</h2>`)
			b.WriteString("<h3>Approach distance</h3>")
			writeStats(&b, r.Batch.ApproachSummary, false)
			b.WriteString("<h3>Speed</h3>")
			writeStats(&b, r.Batch.SpeedSummary, true)
			b.WriteString(`<div id="approach-chart" style="width:640px;height:360px"></div>`)
			b.WriteString(`<div id="speed-chart" style="width:640px;height:360px"></div>`)
			fmt.Fprintf(&b, `<script nonce="%s">
echarts.init(document.getElementById("approach-chart")).setOption(%s);
echarts.init(document.getElementById("speed-chart")).setOption(%s);
</script>`, templ.EscapeString(cspNonce), r.ApproachChart, r.SpeedChart)
			b.WriteString("</section>\n")
		}

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeFile(b *strings.Builder, f FileReport) {
	res := f.Result
	fmt.Fprintf(b, `<section class="file"><h2>%s</h2>`, templ.EscapeString(res.Name))
	for _, d := range res.Diagnostics() {
		fmt.Fprintf(b, `<p class="%s">%s: %s</p>`, d.Severity, templ.EscapeString(d.KindName), templ.EscapeString(d.Message))
	}
	if res.OK() {
		fmt.Fprintf(b, "<p>Encoding %s, %d position samples, %d stimulus events.</p>",
			templ.EscapeString(res.Stats.Encoding), res.Stats.PositionSamples, res.Stats.StimulusEvents)
		b.WriteString("<h3>Approach distance</h3>")
		writeStats(b, f.ApproachSummary, false)
		b.WriteString("<h3>Speed</h3>")
		writeStats(b, f.SpeedSummary, true)
	}
	b.WriteString("</section>\n")
}

func writeStats(b *strings.Builder, stats []summary.GroupStats, withDirection bool) {
	if len(stats) == 0 {
		b.WriteString("<p>No observations.</p>")
		return
	}
	b.WriteString("<table><thead><tr>")
	if withDirection {
		b.WriteString("<th>Direction</th>")
	}
	b.WriteString("<th>ImageType</th><th>count</th><th>mean</th><th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr></thead><tbody>")
	for _, s := range stats {
		b.WriteString("<tr>")
		if withDirection {
			fmt.Fprintf(b, "<td>%s</td>", s.Direction)
		}
		std := "NaN"
		if s.Std != nil {
			std = fmt.Sprintf("%.4f", *s.Std)
		}
		fmt.Fprintf(b, "<td>%s</td><td>%d</td><td>%.4f</td><td>%s</td><td>%.4f</td><td>%.4f</td><td>%.4f</td><td>%.4f</td><td>%.4f</td>",
			s.ImageType, s.Count, s.Mean, std, s.Min, s.Q25, s.Median, s.Q75, s.Max)
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}
