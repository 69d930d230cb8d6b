package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"github.com/rotisserie/eris"

	"github.com/adientlz/pvs-reporter/internal/reconcile"
	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/report"
)

// cell is one pre-styled table cell. Styles are computed in Go so the
// template stays a plain layout.
type cell struct {
	Text  string
	Style template.CSS
}

type rowView struct {
	Line      string
	RowStyle  template.CSS
	Separator bool
	Cells     []cell
}

type summaryView struct {
	Label    string
	Pct      string
	PctColor template.CSS
	Details  string
}

type emailView struct {
	Date      string
	Summaries []summaryView
	Rows      []rowView
}

// Render produces the HTML email body for a report result.
func Render(res report.Result) (string, error) {
	if !res.Success {
		return "", eris.Errorf("mailer: refusing to render failed report: %s", res.Error)
	}
	view := emailView{Date: res.Date}

	if res.Totals != nil {
		view.Summaries = []summaryView{
			summaryOf("SEW MTD", res.Totals.SEW.MTD),
			summaryOf("ASSY MTD", res.Totals.ASSY.MTD),
			summaryOf("TOTAL MTD", res.Totals.Total.MTD),
		}
	}

	var last refmap.Category
	for i, r := range res.Rows {
		rv := rowView{
			Line:      r.Line,
			RowStyle:  categoryStyle(r.Category),
			Separator: i > 0 && r.Category != last,
		}
		last = r.Category
		for _, w := range []reconcile.WindowMetrics{r.MTD, r.WTD, r.Daily} {
			rv.Cells = append(rv.Cells,
				cell{Text: fmtInt(float64(w.Schedule))},
				cell{Text: fmtInt(w.Production)},
				cell{Text: fmtInt(w.Delta), Style: deltaStyle(w.Delta)},
				cell{Text: fmtPct(w.AdherencePct), Style: adherenceStyle(w.AdherencePct)},
			)
		}
		view.Rows = append(view.Rows, rv)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, view); err != nil {
		return "", eris.Wrap(err, "mailer: render template")
	}
	return buf.String(), nil
}

func summaryOf(label string, w reconcile.WindowMetrics) summaryView {
	pct := 0
	if w.Schedule > 0 {
		pct = int(math.Round(w.Production / float64(w.Schedule) * 100))
	}
	color := template.CSS("color: #e74c3c;")
	if pct >= 100 {
		color = "color: #2ecc71;"
	}
	return summaryView{
		Label:    label,
		Pct:      fmt.Sprintf("%d%%", pct),
		PctColor: color,
		Details:  fmt.Sprintf("Sched: %s | Prod: %s", fmtInt(float64(w.Schedule)), fmtInt(w.Production)),
	}
}

func categoryStyle(c refmap.Category) template.CSS {
	switch c {
	case refmap.CategorySEW:
		return "background-color: rgba(180, 60, 60, 0.25);"
	case refmap.CategoryASSY:
		return "background-color: rgba(40, 100, 140, 0.25);"
	default:
		return "background-color: rgba(80, 80, 80, 0.20);"
	}
}

func deltaStyle(d float64) template.CSS {
	if d >= 0 {
		return "color: #28a745;"
	}
	return "color: #dc3545;"
}

// adherenceStyle shades the cell from neutral toward green or red as the
// deviation grows, saturating at 50 points.
func adherenceStyle(pct *float64) template.CSS {
	if pct == nil {
		return "color: #aaa;"
	}
	intensity := math.Min(math.Abs(*pct)/50, 1)
	var r, g, b int
	text := "#aaa"
	if *pct >= 0 {
		r = int(20 + 20*intensity)
		g = int(30 + 137*intensity)
		b = int(25 + 44*intensity)
		if intensity > 0.3 {
			text = "#d4ffd4"
		}
	} else {
		r = int(30 + 190*intensity)
		g = int(20 + 33*intensity)
		b = int(20 + 49*intensity)
		if intensity > 0.3 {
			text = "#fff"
		}
	}
	return template.CSS(fmt.Sprintf("background-color: rgb(%d, %d, %d); color: %s;", r, g, b, text))
}

func fmtInt(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

func fmtPct(pct *float64) string {
	if pct == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*pct)))
}

var emailTmpl = template.Must(template.New("pvs-email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Segoe UI, Roboto, Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; background: #0a3b41; border-radius: 12px; padding: 20px; }
h1 { color: #c8e000; text-align: center; margin: 0 0 5px 0; font-size: 24px; }
.subtitle { color: #a0c0c4; text-align: center; margin-bottom: 15px; font-size: 14px; }
.summary-box { text-align: center; padding: 12px 20px; border-radius: 8px; min-width: 150px; background: rgba(200, 224, 0, 0.2); }
.summary-box h4 { margin: 0 0 8px; font-size: 14px; color: #c8e000; }
.summary-box .pct { font-size: 28px; font-weight: 700; }
.summary-box .details { font-size: 11px; color: #a0c0c4; margin-top: 4px; }
table { width: 100%; border-collapse: collapse; background: #08343a; border-radius: 8px; overflow: hidden; font-size: 13px; }
th { background: #0f5560; color: #e3f2f4; font-weight: 700; padding: 10px 12px; text-align: right; }
th:first-child { text-align: left; }
th.group { text-align: center; font-size: 14px; font-weight: 800; }
th.mtd { background: #0f6a70; }
th.wtd { background: #154f7a; }
th.daily { background: #6a5b16; }
td { color: #e8f1f2; text-align: right; padding: 8px 12px; border-bottom: 1px solid #1a4a50; }
td.line { text-align: left; font-weight: 600; }
</style>
</head>
<body>
<div class="container">
<h1>ADIENT LOZNICA PVS</h1>
<div class="subtitle">Report Date: {{.Date}}</div>
<table style="width: auto; margin: 0 auto 20px; background: transparent;">
<tr>
{{range .Summaries}}<td style="padding: 0 15px; border-bottom: none;">
<div class="summary-box">
<h4>{{.Label}}</h4>
<div class="pct" style="{{.PctColor}}">{{.Pct}}</div>
<div class="details">{{.Details}}</div>
</div>
</td>
{{end}}</tr>
</table>
<table>
<thead>
<tr>
<th rowspan="2" style="text-align: left;">Line</th>
<th class="group mtd" colspan="4">MTD</th>
<th class="group wtd" colspan="4">WTD</th>
<th class="group daily" colspan="4">Daily PVS</th>
</tr>
<tr>
<th class="mtd">Schedule</th><th class="mtd">Production</th><th class="mtd">Delta</th><th class="mtd">Adh %</th>
<th class="wtd">Schedule</th><th class="wtd">Production</th><th class="wtd">Delta</th><th class="wtd">Adh %</th>
<th class="daily">Sched</th><th class="daily">Prod</th><th class="daily">Delta</th><th class="daily">Adh %</th>
</tr>
</thead>
<tbody>
{{range .Rows}}{{if .Separator}}<tr style="height: 6px; background: #0a3b41;"><td colspan="13"></td></tr>
{{end}}<tr style="{{.RowStyle}}">
<td class="line">{{.Line}}</td>
{{range .Cells}}<td style="{{.Style}}">{{.Text}}</td>
{{end}}</tr>
{{end}}</tbody>
</table>
</div>
</body>
</html>
`))
