package ingest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/aquamon/pkg/telemetry"
)

var _ = Describe("Consumer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should persist a published reading", func() {
		ts := time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)
		payload, err := telemetry.Reading{
			Timestamp:   &ts,
			Temperature: 26.1,
			PH:          7.4,
			TDSLevel:    410,
		}.Marshal()
		Expect(err).NotTo(HaveOccurred())

		Expect(publisher.Push(ctx, payload)).To(Succeed())

		Eventually(func() int {
			readings, err := testStore.ListRecent(ctx, 10)
			if err != nil {
				return 0
			}
			count := 0
			for _, r := range readings {
				if r.Temperature == 26.1 && r.PH == 7.4 {
					count++
				}
			}
			return count
		}, 15*time.Second, 500*time.Millisecond).Should(Equal(1))
	})

	It("should drop an undecodable payload without blocking the queue", func() {
		Expect(publisher.Push(ctx, []byte("not json"))).To(Succeed())

		marker := telemetry.Reading{
			Temperature: 21.7,
			PH:          6.9,
			TDSLevel:    199,
		}
		payload, err := marker.Marshal()
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.Push(ctx, payload)).To(Succeed())

		// The valid reading behind the poison message still arrives.
		Eventually(func() bool {
			readings, err := testStore.ListRecent(ctx, 20)
			if err != nil {
				return false
			}
			for _, r := range readings {
				if r.Temperature == 21.7 && r.TDSLevel == 199 {
					return true
				}
			}
			return false
		}, 15*time.Second, 500*time.Millisecond).Should(BeTrue())
	})

	It("should drop an out-of-range reading instead of retrying it", func() {
		payload, err := telemetry.Reading{
			Temperature: 240, // outside [-50,100]
			PH:          7.0,
			TDSLevel:    300,
		}.Marshal()
		Expect(err).NotTo(HaveOccurred())
		Expect(publisher.Push(ctx, payload)).To(Succeed())

		Consistently(func() bool {
			readings, err := testStore.ListRecent(ctx, 50)
			if err != nil {
				return false
			}
			for _, r := range readings {
				if r.Temperature == 240 {
					return true
				}
			}
			return false
		}, 5*time.Second, 500*time.Millisecond).Should(BeFalse())
	})
})
