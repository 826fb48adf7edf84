package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type dayView struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	MinTemp     int       `json:"minTemp"`
	MaxTemp     int       `json:"maxTemp"`
	CurrentTemp int       `json:"currentTemp"`
}

type stateView struct {
	Status   string    `json:"status"`
	Reason   string    `json:"reason"`
	Today    *dayView  `json:"today"`
	NextDays []dayView `json:"next_days"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the weather-state API")
	maxRetries := flag.Int("retries", 5, "How many times to retry after an error")
	flag.Parse()

	fmt.Println("Weather State API Client Example")
	fmt.Println("================================")

	retries := 0
	for {
		state, err := getState(*baseURL)
		if err != nil {
			fmt.Printf("Error fetching state: %v\n", err)
			os.Exit(1)
		}

		switch state.Status {
		case "loading":
			fmt.Println("Loading...")
			time.Sleep(300 * time.Millisecond)

		case "error":
			fmt.Printf("Forecast failed: %s\n", state.Reason)
			if retries >= *maxRetries {
				fmt.Println("Giving up.")
				os.Exit(1)
			}
			retries++
			if err := retry(*baseURL); err != nil {
				fmt.Printf("Error requesting retry: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Retry #%d requested\n", retries)

		case "success":
			printForecast(state)
			return

		default:
			fmt.Printf("Unexpected status %q\n", state.Status)
			os.Exit(1)
		}
	}
}

func getState(baseURL string) (stateView, error) {
	resp, err := http.Get(baseURL + "/api/state")
	if err != nil {
		return stateView{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stateView{}, err
	}

	var state stateView
	if err := json.Unmarshal(body, &state); err != nil {
		return stateView{}, fmt.Errorf("failed to parse state: %w", err)
	}
	return state, nil
}

func retry(baseURL string) error {
	resp, err := http.Post(baseURL+"/api/state/retry", "application/json", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()

	// 409 means a fetch is already running, which is fine for a poller
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func printForecast(state stateView) {
	if state.Today != nil {
		t := state.Today
		fmt.Printf("\n%s, %s\n", t.Date.Format("Monday"), t.Date.Format("January 2"))
		fmt.Printf("  %s, %d°C (min %d°C, max %d°C)\n", t.Description, t.CurrentTemp, t.MinTemp, t.MaxTemp)
	}

	fmt.Println("\nNext days:")
	for _, d := range state.NextDays {
		fmt.Printf("  %-9s %-12s %3d°C / %3d°C\n", d.Date.Format("Mon 02"), d.Description, d.MinTemp, d.MaxTemp)
	}
}
