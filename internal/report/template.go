package report

// htmlTemplate renders Data as a single self-contained page.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  a { color: var(--accent); text-decoration: none; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .verdict {
    padding: 16px;
    border-radius: 8px;
    margin: 12px 0;
    background: var(--section-bg);
    border-left: 5px solid {{.DomColor}};
  }
  .verdict .label { font-size: 1.3rem; font-weight: 700; color: {{.DomColor}}; }
  .gauges { display: flex; flex-wrap: wrap; gap: 16px; justify-content: space-around; margin: 12px 0; }
  .gauge { text-align: center; }
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  .article { background: var(--section-bg); border-radius: 8px; padding: 12px 16px; margin: 10px 0; }
  .article h3 { font-size: 1rem; margin-bottom: 4px; }
  .badge {
    display: inline-block;
    padding: 1px 8px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
    color: #fff;
  }
  .topic {
    display: inline-block;
    background: #eef2ff;
    color: var(--accent);
    border-radius: 10px;
    padding: 0 8px;
    margin: 2px;
    font-size: 0.8rem;
  }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); vertical-align: top; }
  .transcript { white-space: pre-wrap; font-size: 0.85rem; background: var(--section-bg); padding: 12px; border-radius: 6px; }
  .footer { margin-top: 30px; padding-top: 12px; border-top: 2px solid var(--border); font-size: 0.8rem; color: var(--muted); text-align: center; }
  @media print {
    body { max-width: 100%; padding: 10px; }
    .article, table { page-break-inside: avoid; }
    audio { display: none; }
  }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Title}}</h1>
  <p class="muted">{{.GeneratedAt}} · {{.Total}} articles</p>
</div>

<div class="verdict">
  <div class="label">{{.Dominant}}</div>
  <p>{{.Verdict}}</p>
</div>

{{if .ShowSentiment}}
<div class="section">
  <h2>Sentiment Distribution</h2>
  <div class="gauges">
  {{range .Gauges}}
    <div class="gauge">{{.SVG}}<p class="muted">{{.Count}} of {{$.Total}}</p></div>
  {{end}}
  </div>
  <div class="chart-container">{{.DistChart}}</div>
</div>
{{end}}

{{if .ShowArticles}}
<div class="section">
  <h2>Articles</h2>
  {{range .Articles}}
  <div class="article">
    <h3>{{.Index}}. {{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
    <p><span class="badge" style="background: {{.Color}}">{{.Label}}</span> <span class="muted">score {{.Score}}</span></p>
    <p>{{.Summary}}</p>
    {{if .Topics}}<p class="muted">Topics: {{.Topics}}</p>{{end}}
  </div>
  {{end}}
</div>
{{end}}

{{if and .ShowComparisons .Comparisons}}
<div class="section">
  <h2>Coverage Differences</h2>
  <table>
    <thead><tr><th>Comparison</th><th>Impact</th></tr></thead>
    <tbody>
    {{range .Comparisons}}
    <tr><td>{{.Label}}</td><td>{{.Impact}}</td></tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .ShowTopics}}
<div class="section">
  <h2>Topic Overlap</h2>
  <p><strong>Common topics:</strong>
  {{range .CommonTopics}}<span class="topic">{{.}}</span>{{else}}<span class="muted">none</span>{{end}}
  </p>
  {{if .UniqueTopics}}
  <table>
    <thead><tr><th>Article</th><th>Unique topics</th></tr></thead>
    <tbody>
    {{range .UniqueTopics}}
    <tr><td>{{.Title}}</td><td>{{.Topics}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

{{if .ShowNarration}}
<div class="section">
  <h2>Narration</h2>
  {{if .NarrationOK}}
    {{if .AudioURL}}<audio controls src="{{.AudioURL}}"></audio>{{else}}<p class="muted">{{.NarrationRef}}</p>{{end}}
  {{else}}
    <p class="muted">Audio unavailable{{if .NarrationErr}}: {{.NarrationErr}}{{end}}</p>
  {{end}}
  {{if .Transcript}}<details><summary>Transcript</summary><div class="transcript">{{.Transcript}}</div></details>{{end}}
</div>
{{end}}

<div class="footer">
  <p>Generated by NewsPulse from public news coverage. Not investment advice.</p>
</div>

</body>
</html>`
