// Package report renders the narrative QC compliance report from stored
// verdicts and facility metadata. Pure templating: no evaluation logic.
package report

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"goqc/domain/qc"
	"goqc/internal/session"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Params identify one report run
type Params struct {
	ReportType string
	Period     string
	Date       time.Time
	Physicist  string
}

// sectionView is one QC section as the template sees it
type sectionView struct {
	Title    string
	Protocol string
	Overall  string
	Results  []qc.Result
}

// reportData is the full template context
type reportData struct {
	Params   Params
	Facility session.FacilityInfo
	Sections []sectionView
	AllPass  bool
	Failing  []string
	Monitor  []string
	Today    string
}

// Synthesizer renders reports from verdicts and facility metadata
type Synthesizer struct {
	tmpl *template.Template
}

// NewSynthesizer parses the report template
func NewSynthesizer() (*Synthesizer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Synthesizer{tmpl: tmpl}, nil
}

// statusLabels map classification statuses to report language. Monitor
// and minor fail carry different wording but the same consequence.
var statusLabels = map[qc.Status]string{
	qc.StatusPass:      "PASS",
	qc.StatusMonitor:   "MONITOR - above reference, below pass/fail limit",
	qc.StatusMinorFail: "MINOR FAIL - above reference, below pass/fail limit",
	qc.StatusMajorFail: "MAJOR FAIL - outside acceptance criteria",
}

// sectionTitles map section IDs to report headings
var sectionTitles = map[string]string{
	"dosimetry":               "Dosimetry Assessment",
	"protocol_review":         "Protocol Review",
	"beam_collimation":        "Beam Collimation",
	"ct_number_accuracy":      "CT Number Accuracy",
	"low_contrast_resolution": "Low Contrast Resolution",
	"uniformity":              "CT Number Uniformity",
	"artifacts":               "Artifacts Assessment",
	"spatial_resolution":      "Spatial Resolution",
}

// Render produces the markdown report body
func (s *Synthesizer) Render(params Params, facility session.FacilityInfo, verdicts []qc.Verdict) (string, error) {
	data := reportData{
		Params:   params,
		Facility: facility,
		AllPass:  true,
		Today:    time.Now().Format("January 2, 2006"),
	}

	for _, v := range verdicts {
		title := sectionTitles[v.Section.String()]
		if title == "" {
			title = v.Section.String()
		}
		data.Sections = append(data.Sections, sectionView{
			Title:    title,
			Protocol: v.Protocol.String(),
			Overall:  statusLabels[v.Overall],
			Results:  v.Results,
		})
		switch {
		case v.Overall == qc.StatusMajorFail:
			data.AllPass = false
			data.Failing = append(data.Failing, title)
		case !v.Overall.Passing():
			data.AllPass = false
			data.Monitor = append(data.Monitor, title)
		}
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report rendering failed: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML produces the HTML form of the report for the web view
func (s *Synthesizer) RenderHTML(params Params, facility session.FacilityInfo, verdicts []qc.Verdict) ([]byte, error) {
	md, err := s.Render(params, facility, verdicts)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer), nil
}

const reportTemplate = `# COMPUTED TOMOGRAPHY QUALITY CONTROL REPORT

## Facility Information

- **Facility:** {{.Facility.Facility}}
- **Address:** {{.Facility.Address}}
- **Location:** {{.Facility.Location}}
- **X-ray License:** {{.Facility.XrayLicense}}

## Equipment Information

- **Manufacturer:** {{.Facility.Manufacturer}}
- **Model:** {{.Facility.Model}}
- **Serial Number:** {{.Facility.Serial}}

## Survey Information

- **Report Type:** {{.Params.ReportType}}
- **Report Date:** {{.Params.Date.Format "2006-01-02"}}
- **Report Period:** {{.Params.Period}}
- **Medical Physicist:** {{.Params.Physicist}}

## Executive Summary

This report summarizes the computed tomography quality control testing
performed in accordance with the ACR Technical Standard for Diagnostic
Medical Physics Performance Monitoring of CT Equipment. Testing used the
ACR CT Accreditation Phantom and standard measurement protocols.

## Testing Performed
{{range .Sections}}
### {{.Title}}{{if .Protocol}} ({{.Protocol}}){{end}}

**Status:** {{.Overall}}

| Test | Measured | Expected | Deviation | Criterion | Result |
|------|----------|----------|-----------|-----------|--------|
{{- range .Results}}
| {{.TestName}} | {{printf "%.2f" .Measured}}{{if .Unit}} {{.Unit}}{{end}} | {{printf "%.2f" .Expected}} | {{printf "%+.2f" .Deviation}} | {{.Band}} | {{.Status}} |
{{- end}}
{{end}}
## Findings and Recommendations

{{if .AllPass -}}
All evaluated sections passed their acceptance criteria. No immediate
corrective actions are required. Continue the established QC program and
monitor trending data for gradual parameter drift.
{{- else -}}
The following sections require attention:
{{range .Failing}}
- **{{.}}**: outside acceptance criteria; corrective action required before continued clinical use.
{{- end}}
{{- range .Monitor}}
- **{{.}}**: above reference level; monitor and review at the next scheduled QC interval.
{{- end}}
{{- end}}

## Certification

Report prepared by {{.Params.Physicist}}, Medical Physicist, on {{.Today}}.
The testing was performed in accordance with established protocols and
recognized professional standards; all measurement equipment was within
its calibration interval.
`
