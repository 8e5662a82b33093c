//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "admin-api"
	ConsumerName = "admin-portal"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "order with id 301 exists with two items"
	StateOrderMissing   = "no order with id 999"
)

const (
	ExistingOrderID int64 = 301
	MissingOrderID  int64 = 999

	ExistingItemID int64 = 3011
	SecondItemID   int64 = 3012

	ExampleUserID int64 = 42
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the admin portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload is the body the portal sends when an admin creates an order.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"user_id": ExampleUserID,
		"status":  "pending",
		"items": []map[string]any{
			{"product_id": 7, "quantity": 2, "unit_price": "12.50"},
			{"product_id": 9, "quantity": 1, "unit_price": "5.00"},
		},
	}
}

// ExampleUpdateOrderPayload keeps the first seeded line, changes its quantity and drops the second.
func ExampleUpdateOrderPayload() map[string]any {
	return map[string]any{
		"status": "paid",
		"items": []map[string]any{
			{"id": ExistingItemID, "product_id": 7, "quantity": 3, "unit_price": "12.50"},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
