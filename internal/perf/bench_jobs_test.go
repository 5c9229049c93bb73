package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/app"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	jobmetrics "github.com/odyssey-erp/udharbook/internal/jobs"
	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/jobs"
)

var perfNow = time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC)

func seededServices(t testing.TB, accountCount, entriesPerAccount int) *app.Services {
	t.Helper()
	svc := app.NewServices(app.ServiceDeps{
		Config: &app.Config{StoreDriver: app.StoreMemory, BcryptCost: 4},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  kv.NewMemoryStore(),
		Clock:  func() time.Time { return perfNow },
	})
	ctx := context.Background()
	for i := 0; i < accountCount; i++ {
		acc, err := svc.Accounts.Signup(ctx, accounts.SignupInput{
			Name:   fmt.Sprintf("Shop %d", i),
			Email:  fmt.Sprintf("shop%d@example.com", i),
			Secret: "secret1",
		})
		if err != nil {
			t.Fatalf("signup: %v", err)
		}
		cust, err := svc.Customers.AddCustomer(ctx, acc.ID, customers.CreateCustomerRequest{Name: "Ravi", Phone: "9876543210"})
		if err != nil {
			t.Fatalf("add customer: %v", err)
		}
		for j := 0; j < entriesPerAccount; j++ {
			_, err := svc.Credit.AddEntry(ctx, acc.ID, credit.CreateEntryRequest{
				CustomerID: cust.ID,
				Amount:     float64(100 + j),
				DueDate:    perfNow.AddDate(0, 0, j%10-3),
			})
			if err != nil {
				t.Fatalf("add entry: %v", err)
			}
		}
	}
	return svc
}

func TestReminderScanThroughput(t *testing.T) {
	svc := seededServices(t, 20, 25)
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	job := jobs.NewReminderScanJob(svc.Accounts, svc.Credit, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	for i := 0; i < 10; i++ {
		result, err := job.Run(context.Background(), -1)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if result.Accounts != 20 {
			t.Fatalf("expected 20 accounts scanned, got %d", result.Accounts)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "udhar_jobs_total", map[string]string{"job": jobs.TaskCreditReminderScan, "status": "success"})
	if success != 10 {
		t.Fatalf("expected 10 successful scans, got %f", success)
	}

	// 19 of the 25 entries per account fall due within three days.
	due := metricValue(t, families, "udhar_credit_reminders_due_total", nil)
	if due != 10*20*19 {
		t.Fatalf("unexpected reminder count: %f", due)
	}

	mean := histogramMean(t, families, "udhar_job_duration_seconds", map[string]string{"job": jobs.TaskCreditReminderScan})
	if mean > 2.0 {
		t.Fatalf("reminder scan duration above budget: %f", mean)
	}
}

func BenchmarkReminderScan(b *testing.B) {
	svc := seededServices(b, 10, 50)
	job := jobs.NewReminderScanJob(svc.Accounts, svc.Credit, slog.New(slog.NewTextHandler(io.Discard, nil)), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := job.Run(context.Background(), -1); err != nil {
			b.Fatal(err)
		}
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, val := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				if lp.GetValue() != val {
					return false
				}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
