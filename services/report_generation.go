package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/notifications"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/report.html
var reportTemplates embed.FS

var reportTmpl = template.Must(template.ParseFS(reportTemplates, "templates/report.html"))

var numberMeanings = map[int]string{
	1:  "Leadership, independence and the drive to begin new things.",
	2:  "Partnership, diplomacy and sensitivity to others.",
	3:  "Expression, creativity and a gift for communication.",
	4:  "Stability, discipline and steady hard work.",
	5:  "Freedom, change and a love of adventure.",
	6:  "Responsibility, care and devotion to family.",
	7:  "Reflection, analysis and a search for deeper truth.",
	8:  "Ambition, authority and material success.",
	9:  "Compassion, generosity and service to the wider world.",
	11: "Master number: intuition, inspiration and spiritual insight.",
	22: "Master number: the master builder who turns vision into reality.",
	33: "Master number: the master teacher, guided by compassion.",
}

type reportRow struct {
	Label   string
	Value   int
	Meaning string
}

func RenderReportHTML(report *models.NumerologyReport, n Numbers, sf *config.Storefront) (string, error) {
	data := struct {
		Title        string
		FullName     string
		DateOfBirth  string
		ThemeColor   string
		SupportEmail string
		GeneratedOn  string
		Rows         []reportRow
	}{
		Title:        sf.Description,
		FullName:     report.FullName,
		DateOfBirth:  report.DateOfBirth,
		ThemeColor:   sf.ThemeColor,
		SupportEmail: sf.SupportEmail,
		GeneratedOn:  time.Now().Format("January 2, 2006"),
		Rows: []reportRow{
			{"Life Path Number", n.LifePath, numberMeanings[n.LifePath]},
			{"Destiny Number", n.Destiny, numberMeanings[n.Destiny]},
			{"Soul Urge Number", n.SoulUrge, numberMeanings[n.SoulUrge]},
			{"Personality Number", n.Personality, numberMeanings[n.Personality]},
		},
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type ReportRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type ReportUploader interface {
	Upload(ctx context.Context, data []byte, publicID string) (string, error)
}

// ChromeRenderer prints HTML to PDF with a headless Chrome.
type ChromeRenderer struct{}

func (ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "numerology_reports",
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

// ReportFulfiller turns paid reports into delivered PDFs. Without a renderer
// and an uploader it only fills in the computed numbers.
type ReportFulfiller struct {
	DB       *gorm.DB
	Renderer ReportRenderer
	Uploader ReportUploader
}

type FulfilSummary struct {
	Processed int
	Delivered int
	Failed    int
}

func (f *ReportFulfiller) canPublish() bool {
	return f.Renderer != nil && f.Uploader != nil
}

func (f *ReportFulfiller) FulfilPaidReports(ctx context.Context, limit int) (FulfilSummary, error) {
	var summary FulfilSummary
	if limit <= 0 {
		limit = 20
	}

	q := f.DB.WithContext(ctx).Where("payment_status = ?", models.PaymentStatusCompleted)
	if f.canPublish() {
		q = q.Where("generated_at IS NULL")
	} else {
		q = q.Where("life_path_number IS NULL")
	}

	var reports []models.NumerologyReport
	if err := q.Order("paid_at asc").Limit(limit).Find(&reports).Error; err != nil {
		return summary, fmt.Errorf("find reports to fulfil: %w", err)
	}

	for i := range reports {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		delivered, err := f.FulfilReport(ctx, &reports[i])
		if err != nil {
			summary.Failed++
			zap.L().Error("🔥 Failed to fulfil report", zap.Stringer("report_id", reports[i].ID), zap.Error(err))
			continue
		}
		if delivered {
			summary.Delivered++
		}
	}
	return summary, nil
}

// FulfilReport stores the numbers for one paid report and, when possible,
// publishes its PDF and emails the link.
func (f *ReportFulfiller) FulfilReport(ctx context.Context, report *models.NumerologyReport) (bool, error) {
	if !report.IsPaid() {
		return false, fmt.Errorf("report %s is not paid", report.ID)
	}

	n, err := CalculateNumbers(report.FullName, report.DateOfBirth)
	if err != nil {
		return false, err
	}
	report.LifePathNumber = &n.LifePath
	report.DestinyNumber = &n.Destiny
	report.SoulUrgeNumber = &n.SoulUrge
	report.PersonalityNumber = &n.Personality

	updates := map[string]interface{}{
		"life_path_number":   n.LifePath,
		"destiny_number":     n.Destiny,
		"soul_urge_number":   n.SoulUrge,
		"personality_number": n.Personality,
	}
	if err := f.DB.WithContext(ctx).Model(report).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("store numbers: %w", err)
	}

	if !f.canPublish() {
		return false, nil
	}

	html, err := RenderReportHTML(report, n, config.GetStorefront())
	if err != nil {
		return false, fmt.Errorf("render report html: %w", err)
	}
	pdf, err := f.Renderer.RenderPDF(ctx, html)
	if err != nil {
		return false, fmt.Errorf("render report pdf: %w", err)
	}
	url, err := f.Uploader.Upload(ctx, pdf, "report_"+report.ID.String())
	if err != nil {
		return false, fmt.Errorf("upload report: %w", err)
	}

	now := time.Now()
	err = f.DB.WithContext(ctx).Model(report).Updates(map[string]interface{}{
		"report_url":   url,
		"generated_at": now,
		"delivered_at": now,
	}).Error
	if err != nil {
		return false, fmt.Errorf("store report url: %w", err)
	}
	report.ReportURL = &url
	report.GeneratedAt = &now
	report.DeliveredAt = &now

	go notifications.SendEmail(report.FullName, report.Email, "Your Numerology Report is Ready",
		notifications.ReportReadyHTML(notifications.ReportReady{Name: report.FullName, URL: url}))

	zap.L().Info("✅ Report delivered", zap.Stringer("report_id", report.ID))
	return true, nil
}
