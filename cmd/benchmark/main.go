// Benchmark tool for replaying labeled applicant data against Kestrel.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/applicants.csv -url http://localhost:8080
//
// This tool:
//  1. Reads applicant rows with an expected decision label
//  2. Sends each applicant to Kestrel for evaluation
//  3. Compares Kestrel's decision with the expected label
//  4. Reports agreement per decision, latency, and throughput
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Applicant is one labeled row from the benchmark dataset.
type Applicant struct {
	ID               string
	Age              float64
	MonthlyIncome    float64
	CreditScore      float64
	MaxDelinquency   float64
	EmploymentStatus string
	CreditPurpose    string
	RequestedAmount  float64
	TenureMonths     float64
	PaymentRatio     float64
	DebtRatio        float64
	IsPEP            bool

	// ExpectedDecision is the label to compare against (APROBADO,
	// RECHAZADO, CONDICIONADO, PENDIENTE).
	ExpectedDecision string
}

// EvaluateRequest mirrors the Kestrel API request body.
type EvaluateRequest struct {
	ApplicantID string         `json:"applicantId"`
	Input       map[string]any `json:"inputData"`
}

// EvaluateResponse is the subset of the API response the benchmark reads.
type EvaluateResponse struct {
	SessionID       string  `json:"sessionId"`
	FinalDecision   string  `json:"finalDecision"`
	RiskProfile     string  `json:"riskProfile"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	Matches    int64
	Mismatches int64

	TotalProcessed int64
	TotalErrors    int64

	ProcessingTimeMs int64

	mu          sync.Mutex
	byExpected  map[string]int64
	byPredicted map[string]int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labeled applicant CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	limit := flag.Int("limit", 10000, "Maximum applicants to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each applicant result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/applicants.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("=================================================")
	fmt.Println("  KESTREL BENCHMARK - Labeled Applicant Replay")
	fmt.Println("=================================================")
	fmt.Printf("\nCSV File:     %s\n", *csvPath)
	fmt.Printf("Kestrel URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:    %s\n", *tenantID)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Limit:        %d\n", *limit)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("Kestrel is healthy")

	fmt.Printf("\nReading applicant data from %s...\n", *csvPath)
	applicants, err := readApplicantCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d applicants\n", len(applicants))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(applicants, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readApplicantCSV(path string, limit int) ([]Applicant, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(record []string, name string) string {
		i, ok := colIndex[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	num := func(record []string, name string) float64 {
		v, _ := strconv.ParseFloat(field(record, name), 64)
		return v
	}

	var applicants []Applicant

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		a := Applicant{
			ID:               field(record, "applicant_id"),
			Age:              num(record, "age"),
			MonthlyIncome:    num(record, "monthly_income"),
			CreditScore:      num(record, "credit_score"),
			MaxDelinquency:   num(record, "max_days_delinquency"),
			EmploymentStatus: field(record, "employment_status"),
			CreditPurpose:    field(record, "credit_purpose"),
			RequestedAmount:  num(record, "requested_amount"),
			TenureMonths:     num(record, "employment_tenure_months"),
			PaymentRatio:     num(record, "payment_to_income_ratio"),
			DebtRatio:        num(record, "debt_to_income_ratio"),
			IsPEP:            field(record, "is_pep") == "1" || strings.EqualFold(field(record, "is_pep"), "true"),
			ExpectedDecision: strings.ToUpper(field(record, "expected_decision")),
		}

		applicants = append(applicants, a)

		if limit > 0 && len(applicants) >= limit {
			break
		}
	}

	return applicants, nil
}

func runBenchmark(applicants []Applicant, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{
		byExpected:  make(map[string]int64),
		byPredicted: make(map[string]int64),
	}

	work := make(chan Applicant, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for a := range work {
				start := time.Now()
				result, err := evaluateApplicant(client, baseURL, tenantID, a)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", a.ID, err)
					}
					continue
				}

				matched := result.FinalDecision == a.ExpectedDecision
				if matched {
					atomic.AddInt64(&metrics.Matches, 1)
				} else {
					atomic.AddInt64(&metrics.Mismatches, 1)
				}

				metrics.mu.Lock()
				metrics.byExpected[a.ExpectedDecision]++
				metrics.byPredicted[result.FinalDecision]++
				metrics.mu.Unlock()

				if verbose {
					status := "OK "
					if !matched {
						status = "DIFF"
					}
					fmt.Printf("%s %-12s | score: %4.0f | income: $%12.0f | expected: %-12s | kestrel: %-12s (%s, %.0f)\n",
						status,
						a.ID,
						a.CreditScore,
						a.MonthlyIncome,
						a.ExpectedDecision,
						result.FinalDecision,
						result.RiskProfile,
						result.ConfidenceScore,
					)
				}
			}
		}()
	}

	for _, a := range applicants {
		work <- a
	}
	close(work)

	wg.Wait()

	return metrics
}

func evaluateApplicant(client *http.Client, baseURL, tenantID string, a Applicant) (*EvaluateResponse, error) {
	req := EvaluateRequest{
		ApplicantID: a.ID,
		Input: map[string]any{
			"age":                      a.Age,
			"monthly_income":           a.MonthlyIncome,
			"credit_score":             a.CreditScore,
			"max_days_delinquency":     a.MaxDelinquency,
			"employment_status":        a.EmploymentStatus,
			"credit_purpose":           a.CreditPurpose,
			"requested_amount":         a.RequestedAmount,
			"employment_tenure_months": a.TenureMonths,
			"payment_to_income_ratio":  a.PaymentRatio,
			"debt_to_income_ratio":     a.DebtRatio,
			"is_pep":                   a.IsPEP,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n=================================================")
	fmt.Println("              BENCHMARK RESULTS")
	fmt.Println("=================================================")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\nDECISION AGREEMENT\n")
	fmt.Printf("   Matches:     %d\n", m.Matches)
	fmt.Printf("   Mismatches:  %d\n", m.Mismatches)

	evaluated := m.Matches + m.Mismatches
	if evaluated > 0 {
		fmt.Printf("   Agreement:   %.4f\n", float64(m.Matches)/float64(evaluated))
	}

	fmt.Printf("\nEXPECTED DISTRIBUTION\n")
	for decision, count := range m.byExpected {
		fmt.Printf("   %-14s %d\n", decision, count)
	}

	fmt.Printf("\nPREDICTED DISTRIBUTION\n")
	for decision, count := range m.byPredicted {
		fmt.Printf("   %-14s %d\n", decision, count)
	}

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f req/sec\n", rps)
	}

	fmt.Println()
}
