package timmi

import (
	"context"
	"slices"
	"time"

	appLog "salofyi/internal/log"
	"salofyi/internal/model"
)

// FetchDays fetches today plus future days ahead and past days back, and
// returns them in chronological order.
//
// Today is stamped with the current time; every other day takes the epoch
// Timmi reports when moving to it.
func (c *Client) FetchDays(ctx context.Context, past, future int) ([]model.RawDay, error) {
	past = max(past, 0)
	future = max(future, 0)

	start := time.Now()
	appLog.Info("timmi fetch start", "past", past, "future", future)

	today, err := c.Day(ctx, c.now().UnixMilli())
	if err != nil {
		return nil, err
	}

	ahead := make([]model.RawDay, 0, future)
	for i := 0; i < future; i++ {
		day, err := c.move(ctx, +1, i+1)
		if err != nil {
			return nil, err
		}
		ahead = append(ahead, day)
	}

	// Go back to today so the past days are plain -1 steps.
	if past > 0 && future > 0 {
		if _, err := c.ChangeDay(ctx, -future); err != nil {
			return nil, err
		}
	}

	behind := make([]model.RawDay, 0, past)
	for i := 0; i < past; i++ {
		day, err := c.move(ctx, -1, -(i + 1))
		if err != nil {
			return nil, err
		}
		behind = append(behind, day)
	}
	slices.Reverse(behind)

	days := make([]model.RawDay, 0, past+1+future)
	days = append(days, behind...)
	days = append(days, today)
	days = append(days, ahead...)

	appLog.Info("timmi fetch done", "days", len(days), "took", time.Since(start).String())
	return days, nil
}

// move steps the session by delta and fetches the day it lands on. offset
// is the distance from today, used only when Timmi reports no date.
func (c *Client) move(ctx context.Context, delta, offset int) (model.RawDay, error) {
	epoch, err := c.ChangeDay(ctx, delta)
	if err != nil {
		return model.RawDay{}, err
	}
	if epoch == 0 {
		epoch = c.now().AddDate(0, 0, offset).UnixMilli()
		appLog.Warn("timmi returned no date, using local clock", "offset", offset)
	}
	return c.Day(ctx, epoch)
}
