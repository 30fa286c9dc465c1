package store

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/aquamon/internal/store"
)

var _ = Describe("Bootstrap", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		ctx = context.Background()
		truncate("sensor_readings", "system_status", "alert_settings")
		Expect(testStore.Initialize(ctx)).To(Succeed())
	})

	It("should seed one default status row", func() {
		Expect(rowCount("system_status")).To(Equal(int64(1)))

		status, err := testStore.GetStatus(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.ConnectionStatus).To(Equal(store.ConnectionStatusConnected))
		Expect(status.DataPoints).To(BeZero())
		Expect(status.Uptime).To(Equal("0s"))
	})

	It("should seed one default alert-settings row", func() {
		Expect(rowCount("alert_settings")).To(Equal(int64(1)))

		settings, err := testStore.GetAlertSettings(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(settings.TemperatureAlerts).To(BeTrue())
		Expect(settings.PHAlerts).To(BeTrue())
		Expect(settings.TDSLevelAlerts).To(BeFalse())
	})

	It("should not duplicate defaults on repeated calls", func() {
		Expect(testStore.Initialize(ctx)).To(Succeed())
		Expect(testStore.Initialize(ctx)).To(Succeed())

		Expect(rowCount("system_status")).To(Equal(int64(1)))
		Expect(rowCount("alert_settings")).To(Equal(int64(1)))
	})
})

var _ = Describe("CreateReading", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncate("sensor_readings")
		// Other specs may leave the singleton tables empty.
		Expect(testStore.Initialize(ctx)).To(Succeed())
	})

	Context("with out-of-range values", func() {
		DescribeTable("should fail validation without writing",
			func(temperature, ph, tds float64) {
				_, err := testStore.CreateReading(ctx, store.NewReading{
					Temperature: temperature,
					PH:          ph,
					TDSLevel:    tds,
				})
				Expect(err).To(HaveOccurred())
				Expect(store.IsValidation(err)).To(BeTrue())
				Expect(rowCount("sensor_readings")).To(BeZero())
			},
			Entry("temperature below range", -50.1, 7.0, 300.0),
			Entry("temperature above range", 100.1, 7.0, 300.0),
			Entry("ph below range", 25.0, -0.1, 300.0),
			Entry("ph above range", 25.0, 14.1, 300.0),
			Entry("tds below range", 25.0, 7.0, -1.0),
			Entry("tds above range", 25.0, 7.0, 5000.1),
		)
	})

	Context("with valid values", func() {
		It("should return the materialized row", func() {
			reading, err := testStore.CreateReading(ctx, store.NewReading{
				Temperature: 25.5,
				PH:          7.2,
				TDSLevel:    320,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reading.ID).NotTo(BeZero())
			Expect(reading.CreatedAt).NotTo(BeZero())
			Expect(reading.Timestamp).NotTo(BeZero())
			Expect(reading.Temperature).To(Equal(25.5))
			Expect(reading.PH).To(Equal(7.2))
			Expect(reading.TDSLevel).To(Equal(320.0))
		})

		It("should honor a caller-supplied timestamp", func() {
			ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
			reading, err := testStore.CreateReading(ctx, store.NewReading{
				Timestamp:   &ts,
				Temperature: 24.0,
				PH:          7.0,
				TDSLevel:    280,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reading.Timestamp.UTC()).To(BeTemporally("==", ts))
		})

		It("should accept boundary values", func() {
			_, err := testStore.CreateReading(ctx, store.NewReading{
				Temperature: store.TemperatureMin,
				PH:          store.PHMin,
				TDSLevel:    store.TDSLevelMin,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = testStore.CreateReading(ctx, store.NewReading{
				Temperature: store.TemperatureMax,
				PH:          store.PHMax,
				TDSLevel:    store.TDSLevelMax,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should recompute the status data-point count on every insert", func() {
			for i := range 3 {
				_, err := testStore.CreateReading(ctx, store.NewReading{
					Temperature: 24.0 + float64(i),
					PH:          7.0,
					TDSLevel:    300,
				})
				Expect(err).NotTo(HaveOccurred())
			}

			status, err := testStore.GetStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.DataPoints).To(Equal(int64(3)))
			Expect(status.DataPoints).To(Equal(rowCount("sensor_readings")))
		})
	})

	Context("under concurrency", func() {
		It("should persist all readings and count them exactly", func() {
			const writers = 20

			var wg sync.WaitGroup
			errs := make(chan error, writers)

			for i := range writers {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					_, err := testStore.CreateReading(ctx, store.NewReading{
						Temperature: 20.0 + float64(n)*0.1,
						PH:          7.0,
						TDSLevel:    300,
					})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(rowCount("sensor_readings")).To(Equal(int64(writers)))

			status, err := testStore.GetStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.DataPoints).To(Equal(int64(writers)))
		})
	})
})

var _ = Describe("Listing readings", func() {
	var (
		ctx  context.Context
		base time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncate("sensor_readings")

		base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		for i := range 5 {
			ts := base.Add(time.Duration(i) * time.Minute)
			_, err := testStore.CreateReading(ctx, store.NewReading{
				Timestamp:   &ts,
				Temperature: 24.0 + float64(i),
				PH:          7.0,
				TDSLevel:    300,
			})
			Expect(err).NotTo(HaveOccurred())
		}
	})

	Describe("ListRecent", func() {
		It("should return at most the requested number of rows, newest first", func() {
			readings, err := testStore.ListRecent(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(readings).To(HaveLen(3))

			for i := 1; i < len(readings); i++ {
				Expect(readings[i-1].Timestamp.After(readings[i].Timestamp)).To(BeTrue())
			}
			Expect(readings[0].Timestamp.UTC()).To(BeTemporally("==", base.Add(4*time.Minute)))
		})

		It("should fall back to the default limit for non-positive limits", func() {
			readings, err := testStore.ListRecent(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(readings).To(HaveLen(5))
		})
	})

	Describe("ListByTimeRange", func() {
		It("should return rows inside the range, oldest first, bounds inclusive", func() {
			from := base.Add(1 * time.Minute)
			to := base.Add(3 * time.Minute)

			readings, err := testStore.ListByTimeRange(ctx, from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(readings).To(HaveLen(3))

			Expect(readings[0].Timestamp.UTC()).To(BeTemporally("==", from))
			Expect(readings[len(readings)-1].Timestamp.UTC()).To(BeTemporally("==", to))
			for i := 1; i < len(readings); i++ {
				Expect(readings[i].Timestamp.After(readings[i-1].Timestamp)).To(BeTrue())
			}
		})

		It("should return an empty result for a range with no readings", func() {
			readings, err := testStore.ListByTimeRange(ctx,
				base.Add(-2*time.Hour), base.Add(-1*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(readings).To(BeEmpty())
		})
	})
})

var _ = Describe("Status repository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncate("system_status")
		Expect(testStore.Initialize(ctx)).To(Succeed())
	})

	Describe("GetStatus", func() {
		It("should return the seeded row", func() {
			status, err := testStore.GetStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.ConnectionStatus).To(Equal(store.ConnectionStatusConnected))
		})

		It("should report NotFound when the table was emptied out of band", func() {
			truncate("system_status")

			_, err := testStore.GetStatus(ctx)
			Expect(err).To(HaveOccurred())
			Expect(store.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("UpdateStatus", func() {
		It("should change only the supplied field and the update timestamp", func() {
			before, err := testStore.GetStatus(ctx)
			Expect(err).NotTo(HaveOccurred())

			cpu := 55.0
			after, err := testStore.UpdateStatus(ctx, store.StatusUpdate{CPUUsage: &cpu})
			Expect(err).NotTo(HaveOccurred())

			Expect(after.CPUUsage).To(Equal(55.0))
			Expect(after.UpdatedAt.After(before.UpdatedAt)).To(BeTrue())

			Expect(after.ConnectionStatus).To(Equal(before.ConnectionStatus))
			Expect(after.DataPoints).To(Equal(before.DataPoints))
			Expect(after.MemoryUsage).To(Equal(before.MemoryUsage))
			Expect(after.StorageUsage).To(Equal(before.StorageUsage))
			Expect(after.Uptime).To(Equal(before.Uptime))
		})

		It("should apply several fields at once", func() {
			connection := store.ConnectionStatusError
			uptime := "4h12m"
			after, err := testStore.UpdateStatus(ctx, store.StatusUpdate{
				ConnectionStatus: &connection,
				Uptime:           &uptime,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(after.ConnectionStatus).To(Equal(store.ConnectionStatusError))
			Expect(after.Uptime).To(Equal("4h12m"))
		})

		It("should reject an update with no supplied fields", func() {
			_, err := testStore.UpdateStatus(ctx, store.StatusUpdate{})
			Expect(err).To(HaveOccurred())
			Expect(store.IsValidation(err)).To(BeTrue())
		})

		It("should reject an unknown connection status", func() {
			bogus := "degraded"
			_, err := testStore.UpdateStatus(ctx, store.StatusUpdate{ConnectionStatus: &bogus})
			Expect(err).To(HaveOccurred())
			Expect(store.IsValidation(err)).To(BeTrue())
		})

		It("should reject out-of-range percentages", func() {
			cpu := 100.5
			_, err := testStore.UpdateStatus(ctx, store.StatusUpdate{CPUUsage: &cpu})
			Expect(err).To(HaveOccurred())
			Expect(store.IsValidation(err)).To(BeTrue())
		})

		It("should report NotFound when no row exists", func() {
			truncate("system_status")

			cpu := 10.0
			_, err := testStore.UpdateStatus(ctx, store.StatusUpdate{CPUUsage: &cpu})
			Expect(err).To(HaveOccurred())
			Expect(store.IsNotFound(err)).To(BeTrue())
		})
	})
})

var _ = Describe("Alert-settings repository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		truncate("alert_settings")
	})

	Describe("GetAlertSettings", func() {
		It("should lazily seed defaults when the table is empty", func() {
			settings, err := testStore.GetAlertSettings(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.TemperatureAlerts).To(BeTrue())
			Expect(settings.PHAlerts).To(BeTrue())
			Expect(settings.TDSLevelAlerts).To(BeFalse())

			// The fallback persists, it does not just synthesize.
			Expect(rowCount("alert_settings")).To(Equal(int64(1)))
		})
	})

	Describe("UpdateAlertSettings", func() {
		It("should insert one row when the table is empty", func() {
			settings, err := testStore.UpdateAlertSettings(ctx, store.AlertToggles{
				TemperatureAlerts: false,
				PHAlerts:          true,
				TDSLevelAlerts:    true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.TemperatureAlerts).To(BeFalse())
			Expect(settings.PHAlerts).To(BeTrue())
			Expect(settings.TDSLevelAlerts).To(BeTrue())
			Expect(rowCount("alert_settings")).To(Equal(int64(1)))
		})

		It("should mutate the same logical row on subsequent updates", func() {
			first, err := testStore.UpdateAlertSettings(ctx, store.AlertToggles{
				TemperatureAlerts: true,
				PHAlerts:          true,
				TDSLevelAlerts:    true,
			})
			Expect(err).NotTo(HaveOccurred())

			second, err := testStore.UpdateAlertSettings(ctx, store.AlertToggles{
				TemperatureAlerts: false,
				PHAlerts:          false,
				TDSLevelAlerts:    false,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(second.ID).To(Equal(first.ID))
			Expect(second.TemperatureAlerts).To(BeFalse())
			Expect(second.PHAlerts).To(BeFalse())
			Expect(second.TDSLevelAlerts).To(BeFalse())
			Expect(rowCount("alert_settings")).To(Equal(int64(1)))
		})
	})
})

var _ = Describe("Closed store", func() {
	var (
		ctx    context.Context
		closed *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		closed, err = store.Open(&store.Config{
			Logger:   testLogger,
			Host:     postgresInfo.Host,
			Port:     postgresInfo.Port,
			User:     postgresInfo.User,
			Password: postgresInfo.Password,
			DBName:   postgresInfo.Database,
			SSLMode:  "disable",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(closed.Close()).To(Succeed())
	})

	It("should fail reads with a wrapped persistence error", func() {
		_, err := closed.GetStatus(ctx)
		Expect(err).To(HaveOccurred())

		var perr *store.PersistenceError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Unwrap()).NotTo(BeNil())
	})

	It("should fail listing with a wrapped persistence error", func() {
		_, err := closed.ListRecent(ctx, 5)
		Expect(err).To(HaveOccurred())

		var perr *store.PersistenceError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Unwrap()).NotTo(BeNil())
	})

	It("should fail writes with a wrapped persistence error", func() {
		_, err := closed.CreateReading(ctx, store.NewReading{
			Temperature: 25.5,
			PH:          7.2,
			TDSLevel:    320,
		})
		Expect(err).To(HaveOccurred())

		var perr *store.PersistenceError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Unwrap()).NotTo(BeNil())
	})
})
