package simulator_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/aquamon/internal/store"
	"procodus.dev/aquamon/pkg/simulator"
)

var _ = Describe("NewTankProfile", func() {
	It("should generate a populated profile", func() {
		profile := simulator.NewTankProfile()
		Expect(profile).NotTo(BeNil())
		Expect(profile.TankID).NotTo(BeEmpty())
		Expect(profile.Name).NotTo(BeEmpty())
		Expect(profile.Location).NotTo(BeEmpty())
		Expect(profile.VolumeL).To(BeNumerically(">=", 50))
		Expect(profile.VolumeL).To(BeNumerically("<=", 500))
	})

	It("should generate distinct tank IDs", func() {
		a := simulator.NewTankProfile()
		b := simulator.NewTankProfile()
		Expect(a).NotTo(BeNil())
		Expect(b).NotTo(BeNil())
		Expect(a.TankID).NotTo(Equal(b.TankID))
	})
})

var _ = Describe("Generator", func() {
	var gen *simulator.Generator

	BeforeEach(func() {
		gen = simulator.NewGenerator()
	})

	It("should keep temperature within the simulated band", func() {
		for hour := 0; hour < 24; hour++ {
			t := time.Date(2026, 7, 1, hour, 0, 0, 0, time.UTC)
			for i := 0; i < 50; i++ {
				temp := gen.Temperature(t)
				Expect(temp).To(BeNumerically(">=", 18))
				Expect(temp).To(BeNumerically("<=", 32))
			}
		}
	})

	It("should keep pH within the simulated band", func() {
		for hour := 0; hour < 24; hour++ {
			t := time.Date(2026, 7, 1, hour, 0, 0, 0, time.UTC)
			for i := 0; i < 50; i++ {
				ph := gen.PH(t)
				Expect(ph).To(BeNumerically(">=", 6.0))
				Expect(ph).To(BeNumerically("<=", 8.5))
			}
		}
	})

	It("should keep TDS within the simulated band across a long run", func() {
		for i := 0; i < 5000; i++ {
			tds := gen.TDS()
			Expect(tds).To(BeNumerically(">=", 50))
			Expect(tds).To(BeNumerically("<=", 1200))
		}
	})

	It("should produce readings that pass store validation", func() {
		now := time.Now()
		for i := 0; i < 1000; i++ {
			r := gen.Reading(now.Add(time.Duration(i) * time.Minute))
			Expect(store.ValidateReading(r.Temperature, r.PH, r.TDSLevel)).To(Succeed())
		}
	})

	It("should stamp readings with the supplied time in UTC", func() {
		loc := time.FixedZone("UTC+2", 2*60*60)
		at := time.Date(2026, 7, 1, 14, 30, 0, 0, loc)

		r := gen.Reading(at)
		Expect(r.Timestamp).NotTo(BeNil())
		Expect(r.Timestamp.Equal(at)).To(BeTrue())
		Expect(r.Timestamp.Location()).To(Equal(time.UTC))
	})
})
