package bootstrap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/benmeehan/device-bootstrapper/internal/queue"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// NetworkProbe reports whether the network path to the broker is usable.
type NetworkProbe func(ctx context.Context) error

// ResolveHost returns a probe that succeeds once host resolves. IP literals
// always succeed.
func ResolveHost(host string, timeout time.Duration) NetworkProbe {
	return func(ctx context.Context) error {
		if net.ParseIP(host) != nil {
			return nil
		}

		dnsCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if _, err := net.DefaultResolver.LookupHost(dnsCtx, host); err != nil {
			return fmt.Errorf("failed to resolve hostname %s: %w", host, err)
		}
		return nil
	}
}

// waitForNetwork polls probe until it succeeds. The button hook runs on every
// attempt and the disconnect hook fires once maxAttempts failures are seen.
func waitForNetwork(ctx context.Context, probe NetworkProbe, h queue.Handler, maxAttempts int,
	delay time.Duration, clk clock.Clock, logger zerolog.Logger) error {
	if probe == nil {
		return nil
	}

	signalled := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		h.ManageHardwareButton()

		err := probe(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info().Int("attempts", attempt).Msg("Network is reachable")
			}
			return nil
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("Network not ready")
		if attempt >= maxAttempts && !signalled {
			signalled = true
			h.ManageDisconnections()
		}

		clk.Sleep(delay)
	}
}
