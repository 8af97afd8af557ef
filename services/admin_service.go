package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/anjiri1684/vedic_numerology/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AdminUserRow is a user joined with its profile, as the admin table shows it.
type AdminUserRow struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type DashboardStats struct {
	TotalUsers    int     `json:"total_users"`
	TotalReports  int     `json:"total_reports"`
	PaidReports   int     `json:"paid_reports"`
	UnpaidReports int     `json:"unpaid_reports"`
	TotalOrders   int     `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// AdminSnapshot holds full fetches of the three collections the admin views
// are computed from.
type AdminSnapshot struct {
	Users   []AdminUserRow            `json:"users"`
	Reports []models.NumerologyReport `json:"reports"`
	Orders  []models.Order            `json:"orders"`
}

func LoadAdminSnapshot(ctx context.Context, db *gorm.DB) (*AdminSnapshot, error) {
	var snap AdminSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var users []models.User
		if err := db.WithContext(gctx).Preload("Profile").Order("created_at desc").Find(&users).Error; err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		snap.Users = toAdminUserRows(users)
		return nil
	})
	g.Go(func() error {
		if err := db.WithContext(gctx).Order("created_at desc").Find(&snap.Reports).Error; err != nil {
			return fmt.Errorf("fetch reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := db.WithContext(gctx).Order("created_at desc").Find(&snap.Orders).Error; err != nil {
			return fmt.Errorf("fetch orders: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func toAdminUserRows(users []models.User) []AdminUserRow {
	rows := make([]AdminUserRow, 0, len(users))
	for _, u := range users {
		row := AdminUserRow{
			ID:        u.ID.String(),
			FullName:  u.FullName,
			Email:     u.Email,
			Role:      u.Role,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		}
		if u.Profile != nil {
			if u.Profile.FullName != "" {
				row.FullName = u.Profile.FullName
			}
			if u.Profile.Phone != nil {
				row.Phone = *u.Profile.Phone
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func ComputeStats(snap *AdminSnapshot) DashboardStats {
	stats := DashboardStats{
		TotalUsers:   len(snap.Users),
		TotalReports: len(snap.Reports),
		TotalOrders:  len(snap.Orders),
	}
	for _, r := range snap.Reports {
		if r.IsPaid() {
			stats.PaidReports++
		} else {
			stats.UnpaidReports++
		}
	}
	for _, o := range snap.Orders {
		stats.TotalRevenue += o.Amount
	}
	return stats
}

// FilterOrders matches q case-insensitively against order number, customer
// name and customer email. An empty query returns every order.
func FilterOrders(orders []models.Order, q string) []models.Order {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.OrderNumber), q) ||
			strings.Contains(strings.ToLower(o.CustomerName), q) ||
			strings.Contains(strings.ToLower(o.CustomerEmail), q) {
			out = append(out, o)
		}
	}
	return out
}

func FilterReportsByStatus(reports []models.NumerologyReport, status string) []models.NumerologyReport {
	if status == "" {
		return reports
	}
	out := make([]models.NumerologyReport, 0, len(reports))
	for _, r := range reports {
		if r.PaymentStatus == status {
			out = append(out, r)
		}
	}
	return out
}

func ListPaymentHistory(ctx context.Context, db *gorm.DB, userID string) ([]models.PaymentHistory, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var history []models.PaymentHistory
	if err := q.Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// WriteOrdersCSV writes one line per order with a header row.
func WriteOrdersCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	header := []string{"Order Number", "Date", "Customer Name", "Customer Email", "Customer Phone", "Amount", "Currency", "Payment ID", "Status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range orders {
		paymentID := ""
		if o.PaymentID != nil {
			paymentID = *o.PaymentID
		}
		record := []string{
			o.OrderNumber,
			o.CreatedAt.Format(time.RFC3339),
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			strconv.FormatFloat(o.Amount, 'f', 2, 64),
			o.Currency,
			paymentID,
			o.PaymentStatus,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
