package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"hostel/pkg/config"
	"hostel/pkg/db"
)

// devflow seeds a customer, worker, manager and one catalog service, then drives a service request
// through pending -> accepted -> in_progress -> completed against a running API (dev auth via X-User-Id).
func main() {
	var (
		baseURL = flag.String("base-url", "", "API base url (defaults to http://localhost<HTTP_ADDR>)")
		price   = flag.String("price", "25.00", "price of the seeded service")
	)
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed with APP_ENV=prod")
		os.Exit(2)
	}
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	seed := func(role, name string) string {
		id := uuid.NewString()
		email := fmt.Sprintf("%s+%s@example.com", role, id[:8])
		if _, err := pool.Exec(ctx, `INSERT INTO profiles (id, email, full_name) VALUES ($1, $2, $3)`, id, email, name); err != nil {
			fmt.Fprintf(os.Stderr, "seed profile: %v\n", err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2::app_role)`, id, role); err != nil {
			fmt.Fprintf(os.Stderr, "seed role: %v\n", err)
			os.Exit(1)
		}
		return id
	}
	customerID := seed("customer", "Dev Customer")
	workerID := seed("worker", "Dev Worker")
	managerID := seed("manager", "Dev Manager")

	var serviceID string
	if err := pool.QueryRow(ctx, `
INSERT INTO services (name, description, price, service_type)
VALUES ('Express laundry', 'seeded by devflow', $1::text::numeric, 'laundry')
RETURNING id
`, *price).Scan(&serviceID); err != nil {
		fmt.Fprintf(os.Stderr, "seed service: %v\n", err)
		os.Exit(1)
	}

	var created struct {
		Request struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"request"`
	}
	call(*baseURL, customerID, http.MethodPost, "/v1/requests", map[string]any{
		"serviceId":     serviceID,
		"customerNotes": "two shirts",
	}, &created)
	requestID := created.Request.ID
	fmt.Printf("request %s created (%s)\n", requestID, created.Request.Status)

	for _, target := range []string{"accepted", "in_progress", "completed"} {
		var out struct {
			Request struct {
				Status string `json:"status"`
			} `json:"request"`
		}
		call(*baseURL, workerID, http.MethodPost, "/v1/requests/"+requestID+"/transition", map[string]any{"status": target}, &out)
		fmt.Printf("  -> %s\n", out.Request.Status)
	}

	fmt.Printf("\nSeed complete.\n")
	fmt.Printf("customer_id=%s\nworker_id=%s\nmanager_id=%s\nservice_id=%s\nrequest_id=%s\n",
		customerID, workerID, managerID, serviceID, requestID)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("- With billing-worker running, the customer's open bill gains a %s item:\n", *price)
	fmt.Printf("  GET %s/v1/bills (X-User-Id: %s)\n", *baseURL, customerID)
	fmt.Printf("- Timeline:\n")
	fmt.Printf("  GET %s/v1/requests/%s/events (X-User-Id: %s)\n", *baseURL, requestID, managerID)
}

func call(baseURL, userID, method, path string, body any, out any) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID)

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", method, path, err)
		fmt.Fprintf(os.Stderr, "tip: is the API running, and is HTTP_ADDR set correctly? base_url=%s\n", baseURL)
		os.Exit(1)
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "%s %s status=%d body=%s\n", method, path, resp.StatusCode, string(rb))
		os.Exit(1)
	}
	if out != nil {
		if err := json.Unmarshal(rb, out); err != nil {
			fmt.Fprintf(os.Stderr, "decode %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func defaultBaseURL(httpAddr string) string {
	// httpAddr is typically ":8081" or "0.0.0.0:8081".
	addr := strings.TrimSpace(httpAddr)
	if addr == "" {
		addr = ":8081"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}
