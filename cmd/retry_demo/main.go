package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-state/datasource"
	"weather-state/viewstate"
)

func main() {
	delay := flag.Duration("delay", time.Second, "Simulated fetch latency")
	days := flag.Int("days", 7, "Number of forecast days")
	maxRetries := flag.Int("retries", 10, "Maximum retries after an error")
	seed := flag.Int64("seed", 0, "Random seed (0 seeds from the clock)")
	requestsPerSecond := flag.Float64("rps", 0, "Rate limit in requests per second (0 disables)")
	flag.Parse()

	opts := []datasource.FakeOption{datasource.WithDelay(*delay), datasource.WithDays(*days)}
	if *seed != 0 {
		opts = append(opts, datasource.WithSeed(*seed))
	}
	var source datasource.ForecastSource = datasource.NewFakeSource(opts...)
	if *requestsPerSecond > 0 {
		source = datasource.NewRateLimitedForecastSource(source, *requestsPerSecond, 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, source, *maxRetries); err != nil {
		log.Fatal(err)
	}
}

// run drives a controller until it succeeds or runs out of retries. The
// controller is closed before run returns.
func run(ctx context.Context, source datasource.ForecastSource, maxRetries int) error {
	startTime := time.Now()
	controller := viewstate.NewController(ctx, source)
	defer controller.Close()

	// Stop the watch before Close so it does not wait on an unread channel
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	retries := 0
	for state := range controller.Watch(watchCtx) {
		fmt.Printf("%s - %s", time.Since(startTime).Round(time.Millisecond), state.Status)
		if state.Status == viewstate.StatusError {
			fmt.Printf(" (%s)", state.Reason())
		}
		fmt.Println()

		switch state.Status {
		case viewstate.StatusError:
			if retries >= maxRetries {
				return fmt.Errorf("giving up after %d retries", retries)
			}
			retries++
			controller.Retry()

		case viewstate.StatusSuccess:
			today, _ := state.Today()
			fmt.Printf("\nToday: %s, %d°C (min %d°C, max %d°C)\n",
				today.Condition.Description(), today.CurrentTemp, today.MinTemp, today.MaxTemp)
			for _, d := range state.NextDays() {
				fmt.Printf("  %s  %-12s %3d°C / %3d°C\n", d.Date.Format("Mon Jan 02"), d.Condition.Description(), d.MinTemp, d.MaxTemp)
			}
			fmt.Printf("\nSucceeded after %d retries\n", retries)
			return nil
		}
	}
	return ctx.Err()
}
