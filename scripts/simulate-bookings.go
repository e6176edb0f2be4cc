// Load simulator: fires concurrent reservation requests at the booking API
// and tallies the outcomes. Useful for watching the capacity bound and rate
// limiter behave under contention.
//
// Usage:
//
//	go run scripts/simulate-bookings.go -api http://localhost:8083 -event <event-id> -token <jwt> -users 200
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	apiURL   = flag.String("api", "http://localhost:8083", "Booking API base URL")
	token    = flag.String("token", "", "Bearer token (required)")
	eventID  = flag.String("event", "", "Event ID (required)")
	numUsers = flag.Int("users", 200, "Number of concurrent users")
	maxSeats = flag.Int("max-seats", 4, "Maximum seats per request")
)

type bookingRequest struct {
	EventID string `json:"event_id"`
	Seats   int    `json:"seats"`
}

func main() {
	flag.Parse()

	if *eventID == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "both -event and -token are required")
		flag.Usage()
		os.Exit(1)
	}

	client := &http.Client{Timeout: 15 * time.Second}

	var (
		mu       sync.Mutex
		statuses = map[int]int{}
		seatsOK  int
	)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *numUsers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			seats := 1 + rand.Intn(*maxSeats)
			payload, _ := json.Marshal(bookingRequest{EventID: *eventID, Seats: seats})

			req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/bookings", bytes.NewReader(payload))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+*token)

			resp, err := client.Do(req)
			if err != nil {
				mu.Lock()
				statuses[-1]++
				mu.Unlock()
				return
			}
			resp.Body.Close()

			mu.Lock()
			statuses[resp.StatusCode]++
			if resp.StatusCode == http.StatusCreated {
				seatsOK += seats
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)

	fmt.Printf("Fired %d reservations in %v\n\n", *numUsers, elapsed.Round(time.Millisecond))
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := http.StatusText(code)
		if code == -1 {
			label = "transport error"
		}
		fmt.Printf("  %4d %-22s %d\n", code, label, statuses[code])
	}
	fmt.Printf("\nSeats successfully reserved: %d\n", seatsOK)
}
