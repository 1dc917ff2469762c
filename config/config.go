// Package config loads the service configuration from a YAML file,
// with ${ENV_VAR} placeholder expansion and defaults for everything so
// the server runs without any file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/leave-engine/leave"
)

type Config struct {
	Server struct {
		Port            int      `yaml:"port"`
		RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int      `yaml:"rate_limit_burst"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Store struct {
		// Backend selects "file" or "sqlite".
		Backend      string `yaml:"backend"`
		LeavePath    string `yaml:"leave_path"`
		EmployeePath string `yaml:"employee_path"`
		SQLitePath   string `yaml:"sqlite_path"`
	} `yaml:"store"`

	Leave struct {
		// RestPeriods are day-local break windows in HH:MM clock time.
		RestPeriods []RestPeriodConfig `yaml:"rest_periods"`
		// DeductionCapMinutes caps the rest deduction per leave span.
		DeductionCapMinutes int `yaml:"deduction_cap_minutes"`
	} `yaml:"leave"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

type RestPeriodConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Load reads the configuration at path. A missing file is not an
// error: defaults apply. ${ENV_VAR} placeholders in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return nil, err
		default:
			data = []byte(os.ExpandEnv(string(data)))
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 20
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 40
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.LeavePath == "" {
		c.Store.LeavePath = "data/leaves.csv"
	}
	if c.Store.EmployeePath == "" {
		c.Store.EmployeePath = "data/employees.csv"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/leave.db"
	}
	if c.Leave.DeductionCapMinutes <= 0 {
		c.Leave.DeductionCapMinutes = leave.DefaultDeductionCap
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// RestPeriods converts the configured windows to engine form, falling
// back to the default schedule when none are configured.
func (c *Config) RestPeriods() ([]leave.RestPeriod, error) {
	if len(c.Leave.RestPeriods) == 0 {
		return leave.DefaultRestPeriods, nil
	}
	periods := make([]leave.RestPeriod, 0, len(c.Leave.RestPeriods))
	for _, rp := range c.Leave.RestPeriods {
		if !leave.ValidTimeValue(rp.Start) || !leave.ValidTimeValue(rp.End) {
			return nil, fmt.Errorf("bad rest period %q-%q: times must be HH:MM on a 15-minute boundary", rp.Start, rp.End)
		}
		start := leave.ParseTimeValue(rp.Start)
		end := leave.ParseTimeValue(rp.End)
		if end.Clock <= start.Clock {
			return nil, fmt.Errorf("bad rest period %q-%q: end must be after start", rp.Start, rp.End)
		}
		periods = append(periods, leave.RestPeriod{Start: start.Clock, End: end.Clock})
	}
	return periods, nil
}
