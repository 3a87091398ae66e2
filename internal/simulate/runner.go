package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nightjarlabs/trailmark/pkg/logger"
)

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type snapshotResponse struct {
	Identity    string `json:"identity"`
	Level       int    `json:"level"`
	VisitCount  int    `json:"visitCount"`
	Discoveries []struct {
		ID string `json:"id"`
	} `json:"discoveries"`
}

// Run replays the configured scenarios and reports what stuck.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulate")
	client := &http.Client{Timeout: cfg.Timeout}
	stats := &Stats{}

	scenarios := Pick(cfg.Scenarios)
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no known scenarios selected")
	}

	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log.Info(ctx, "running scenario", logger.String("name", sc.Name))
		for _, ev := range sc.Events(time.Now()) {
			outcome, err := postEvent(ctx, client, cfg.BaseURL, ev)
			if err != nil {
				stats.EventsFailed++
				log.Warn(ctx, "event submission failed",
					logger.String("scenario", sc.Name),
					logger.Error(err),
				)
				continue
			}
			stats.EventsSubmitted++
			if outcome == "duplicate" {
				stats.EventsDuplicate++
			}
			if cfg.Verbose {
				log.Debug(ctx, "event submitted",
					logger.String("kind", ev.Kind),
					logger.String("outcome", outcome),
				)
			}
			if cfg.Gap > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(cfg.Gap):
				}
			}
		}
		stats.ScenariosRun++

		if cfg.SettleDelay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(cfg.SettleDelay):
			}
		}

		snap, err := fetchSnapshot(ctx, client, cfg.BaseURL)
		if err != nil {
			log.Warn(ctx, "snapshot fetch failed", logger.Error(err))
			continue
		}
		found := false
		for _, d := range snap.Discoveries {
			if d.ID == sc.Discovery {
				found = true
				break
			}
		}
		if found {
			stats.DiscoveriesFound++
			log.Info(ctx, "discovery confirmed",
				logger.String("scenario", sc.Name),
				logger.Int("level", snap.Level),
			)
		} else {
			// Higher-level scenarios legitimately stay silent until the
			// visitor levels up.
			log.Info(ctx, "discovery not recorded",
				logger.String("scenario", sc.Name),
				logger.Int("requiredLevel", sc.MinLevel),
				logger.Int("visitorLevel", snap.Level),
			)
		}
	}

	log.Info(ctx, "simulation finished",
		logger.Int("scenarios", stats.ScenariosRun),
		logger.Int("submitted", stats.EventsSubmitted),
		logger.Int("duplicates", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed),
		logger.Int("discoveries", stats.DiscoveriesFound),
	)
	return stats, nil
}

func postEvent(ctx context.Context, client *http.Client, baseURL string, ev Event) (string, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/events", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return "accepted", nil
	case http.StatusOK:
		var ack ackResponse
		if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.Duplicate {
			return "duplicate", nil
		}
		return "accepted", nil
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("backpressure from service")
	default:
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func fetchSnapshot(ctx context.Context, client *http.Client, baseURL string) (*snapshotResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/snapshot", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var snap snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
