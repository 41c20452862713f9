package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/internal/server"
	"go.uber.org/zap"
)

// TestProjectionLatency guards against accidental per-request work such as
// iterating month by month over long horizons.
func TestProjectionLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping latency check in short mode")
	}

	handler := server.NewHandler(zap.NewNop(), server.Options{})
	body := `{"current_age":18,"retirement_age":100,"monthly_contribution":40000,"currency":"usd"}`

	const iterations = 2000
	start := time.Now()
	for i := 0; i < iterations; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cotizar", strings.NewReader(body)))
		if rr.Code != http.StatusOK {
			t.Fatalf("iteration %d: expected 200, got %d", i, rr.Code)
		}
	}
	elapsed := time.Since(start)

	if perRequest := elapsed / iterations; perRequest > 5*time.Millisecond {
		t.Errorf("projection request took %s on average, expected well under 5ms", perRequest)
	}
}

func BenchmarkProjectionHandler(b *testing.B) {
	handler := server.NewHandler(zap.NewNop(), server.Options{})
	body := `{"current_age":30,"retirement_age":65,"monthly_contribution":40000}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cotizar", strings.NewReader(body)))
		if rr.Code != http.StatusOK {
			b.Fatalf("expected 200, got %d", rr.Code)
		}
	}
}

func BenchmarkEngineProject(b *testing.B) {
	engine, err := projection.NewEngine(projection.DefaultPolicy())
	if err != nil {
		b.Fatal(err)
	}
	req := projection.Request{CurrentAge: 30, RetirementAge: 65, MonthlyContribution: 40000, Currency: "usd"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Project(req); err != nil {
			b.Fatal(err)
		}
	}
}
