package sim

import (
	"github.com/pthm-cable/colav/avoidance"
	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/control"
	"github.com/pthm-cable/colav/dynamics"
	"github.com/pthm-cable/colav/nav"
	"github.com/pthm-cable/colav/risk"
	"github.com/pthm-cable/colav/scenario"
)

// ownShip applies the config overrides to the scenario own ship.
func ownShip(cfg *config.Config, sc *scenario.Scenario) scenario.Own {
	own := sc.Own
	if own.Length <= 0 {
		own.Length = cfg.OwnShip.Length
	}
	if own.Beam <= 0 {
		own.Beam = cfg.OwnShip.Beam
	}
	if cfg.OwnShip.CruiseSpeed > 0 {
		own.CruiseSpeed = cfg.OwnShip.CruiseSpeed
	}
	if own.CruiseSpeed <= 0 {
		own.CruiseSpeed = own.Speed
	}
	if cfg.OwnShip.HeadingDeg != nil {
		own.Heading = nav.Rad(*cfg.OwnShip.HeadingDeg)
	}
	return own
}

func dynamicsParams(cfg *config.Config, own scenario.Own) dynamics.Params {
	d := cfg.Dynamics
	return dynamics.Params{
		Length:        own.Length,
		Beam:          own.Beam,
		NomotoGain:    d.NomotoGain,
		NomotoTime:    d.NomotoTime,
		YawCubic:      d.YawCubic,
		SideslipGain:  d.SideslipGain,
		SideslipLag:   d.SideslipLag,
		SpeedLag:      d.SpeedLag,
		TurnSpeedLoss: d.TurnSpeedLoss,
		MinSteerSpeed: d.MinSteerSpeed,
	}
}

func actuatorLimits(cfg *config.Config) dynamics.Limits {
	return dynamics.Limits{
		MaxRudder:     cfg.Derived.MaxRudder,
		MaxRudderRate: cfg.Derived.MaxRudderRate,
		MinSpeed:      cfg.Actuator.MinSpeed,
		MaxSpeed:      cfg.Actuator.MaxSpeed,
	}
}

func controllerGains(cfg *config.Config) control.Gains {
	c := cfg.Controller
	return control.Gains{Kp: c.Kp, Ki: c.Ki, Kd: c.Kd, IntegralLimit: cfg.Derived.IntegralLimit}
}

func riskPolicy(cfg *config.Config) risk.Policy {
	r := cfg.Risk
	return risk.Policy{
		SafetyDistance: r.SafetyDistance,
		ClearFactor:    r.ClearFactor,
		TCPAUrgent:     r.TCPAUrgentS,
		TCPAHorizon:    r.TCPAHorizonS,
		RangeNear:      r.RangeNear,
		RangeFar:       r.RangeFar,
	}
}

func avoidanceParams(cfg *config.Config) avoidance.Params {
	a, d := cfg.Avoidance, cfg.Derived
	p := avoidance.Params{
		Thresholds: avoidance.Thresholds{
			Monitor:    a.MonitorThreshold,
			Action:     a.ActionThreshold,
			Emergency:  a.EmergencyThreshold,
			Hysteresis: a.Hysteresis,
			MinDCPA:    a.MinDCPA,
		},
		Sectors: avoidance.Sectors{
			HeadOn:     d.HeadOnSector,
			Reciprocal: d.Reciprocal,
			Stern:      d.SternSector,
		},
		AvoidanceAngle: d.AvoidanceAngle,
		EmergencyAngle: d.EmergencyAngle,
		ReleaseFactor:  a.ReleaseFactor,
	}
	if cfg.Advisory.Enabled {
		p.AdvisoryInterval = cfg.Advisory.IntervalTicks
		p.AdvisoryTimeout = cfg.Advisory.Timeout
	}
	return p
}
