package notifications

import (
	"bytes"
	"html/template"
)

var (
	paymentConfirmationTmpl = template.Must(template.New("payment").Parse(
		`<h1>Payment Successful!</h1>` +
			`<p>Hi {{.Name}},</p>` +
			`<p>We received your payment of {{.Currency}} {{printf "%.2f" .Amount}} (payment id {{.PaymentID}}, order {{.OrderNumber}}).</p>` +
			`<p>Our numerologists are preparing your personalized report. It will reach this address within 48 hours.</p>`))

	reportReadyTmpl = template.Must(template.New("report").Parse(
		`<h1>Your Numerology Report is Ready</h1>` +
			`<p>Hi {{.Name}},</p>` +
			`<p>Your personalized report is ready: <a href="{{.URL}}">Download Report</a></p>`))

	contactTmpl = template.Must(template.New("contact").Parse(
		`<h1>New contact message</h1>` +
			`<p><b>From:</b> {{.Name}} &lt;{{.Email}}&gt;</p>` +
			`<p><b>Subject:</b> {{.Subject}}</p>` +
			`<p>{{.Message}}</p>`))
)

type PaymentConfirmation struct {
	Name        string
	Amount      float64
	Currency    string
	PaymentID   string
	OrderNumber string
}

type ReportReady struct {
	Name string
	URL  string
}

type ContactNotice struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

func PaymentConfirmationHTML(d PaymentConfirmation) string { return render(paymentConfirmationTmpl, d) }

func ReportReadyHTML(d ReportReady) string { return render(reportReadyTmpl, d) }

func ContactNoticeHTML(d ContactNotice) string { return render(contactTmpl, d) }
