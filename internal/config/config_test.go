package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/paddock/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TickInterval(), convey.ShouldEqual, time.Second)
			convey.So(cfg.TriggerLead(), convey.ShouldEqual, 15*time.Minute)
			convey.So(cfg.TriggerTolerance(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.GraceWindow(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.MaxRepairAttempts, convey.ShouldEqual, 50)
			convey.So(cfg.CatchUp, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the analyzer latency range is ordered", func() {
			lo, hi := cfg.AnalysisLatency()
			convey.So(lo, convey.ShouldBeLessThan, hi)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		convey.Convey("When the tick interval is zero", func() {
			cfg := config.New()
			cfg.TickIntervalMS = 0
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg := config.New()
			cfg.Timezone = "Mars/Olympus_Mons"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrUnknownTimezone), convey.ShouldBeTrue)
		})

		convey.Convey("When the timezone is a real zone", func() {
			cfg := config.New()
			cfg.Timezone = "UTC"
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "UTC")
		})
	})
}
