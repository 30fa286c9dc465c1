package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/aquamon/pkg/metrics"
	"procodus.dev/aquamon/pkg/mq"
	"procodus.dev/aquamon/pkg/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the reading simulator",
	Long: `Run the reading simulator that:
- Generates synthetic water-quality readings for a fake tank
- Publishes readings to RabbitMQ at a fixed interval`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	// Simulator-specific flags
	simulateCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	simulateCmd.Flags().String("queue-name", "sensor-readings", "RabbitMQ queue name for sensor readings")
	simulateCmd.Flags().Duration("interval", 5*time.Second, "Interval between readings")

	// Bind flags to viper
	_ = viper.BindPFlag("simulate.rabbitmq.url", simulateCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("simulate.rabbitmq.queue_name", simulateCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("simulate.interval", simulateCmd.Flags().Lookup("interval"))
}

func runSimulate(_ *cobra.Command, _ []string) error {
	logger := GetLogger("simulate")

	profile := simulator.NewTankProfile()
	if profile != nil {
		logger.Info("simulating tank",
			"tank_id", profile.TankID,
			"name", profile.Name,
			"location", profile.Location,
			"volume_l", profile.VolumeL,
		)
	}

	client := mq.New(
		viper.GetString("simulate.rabbitmq.queue_name"),
		viper.GetString("simulate.rabbitmq.url"),
		logger,
	)
	client.SetMetrics(metrics.NewMQMetrics("aquamon"))
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close mq client", "error", err)
		}
	}()

	gen := simulator.NewGenerator()
	interval := viper.GetDuration("simulate.interval")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("simulator running", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("simulator stopped")
			return nil
		case now := <-ticker.C:
			reading := gen.Reading(now)
			payload, err := reading.Marshal()
			if err != nil {
				logger.Error("failed to encode reading", "error", err)
				continue
			}

			pushCtx, cancel := context.WithTimeout(ctx, interval)
			err = client.Push(pushCtx, payload)
			cancel()
			if err != nil {
				logger.Error("failed to publish reading", "error", err)
				continue
			}

			logger.Debug("published reading",
				"temperature", reading.Temperature,
				"ph", reading.PH,
				"tds_level", reading.TDSLevel,
			)
		}
	}
}
