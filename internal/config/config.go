package config

import (
	"fmt"
	"os"
	"time"

	"IoMTSpectra/internal/evaluate"
	"IoMTSpectra/internal/model"

	"gopkg.in/yaml.v3"
)

// DeviceDef defines a single device entry in the static device table.
type DeviceDef struct {
	Name       string `yaml:"name"`
	Class      string `yaml:"class"`
	Address    string `yaml:"address"`
	Port       uint16 `yaml:"port"`
	TaskTarget uint32 `yaml:"task_target"`
}

// SafetyConditionDef defines one threshold in a traffic class's rule set.
type SafetyConditionDef struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// SafetyConfig maps a traffic class to its list of safety conditions.
// Classes with no entry carry no safety rules.
type SafetyConfig struct {
	Classes map[string][]SafetyConditionDef `yaml:"classes"`
}

// CSVConfig holds settings for the CSV export writer.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig holds settings for the human-readable report writer.
// An empty path means standard output.
type ReportConfig struct {
	Path string `yaml:"path"`
}

// JSONConfig holds settings for the JSON run-archive writer.
type JSONConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds connection settings for the ClickHouse writer and querier.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines a single export sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	CSV        CSVConfig        `yaml:"csv"`
	Report     ReportConfig     `yaml:"report"`
	JSON       JSONConfig       `yaml:"json"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// RunConfig holds settings for a single collection run.
type RunConfig struct {
	// Duration after which collection stops and evaluation starts.
	// Empty means run until a shutdown signal.
	Duration string `yaml:"duration"`
	// MaxFlows caps the number of records accepted per run; 0 is unbounded.
	MaxFlows int `yaml:"max_flows"`
}

// IngestConfig holds the NATS transport settings for flow records.
type IngestConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds settings for the HTTP query API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// SMTPConfig holds settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Run                   RunConfig    `yaml:"run"`
	Devices               []DeviceDef  `yaml:"devices"`
	Safety                SafetyConfig `yaml:"safety"`
	Writers               []WriterDef  `yaml:"writers"`
	Ingest                IngestConfig `yaml:"ingest"`
	API                   APIConfig    `yaml:"api"`
	SMTP                  SMTPConfig   `yaml:"smtp"`
	NotifyOnSafetyFailure bool         `yaml:"notify_on_safety_failure"`
}

// LoadConfig reads the configuration from a YAML file, applies defaults,
// and validates it. Inconsistent device tables or rule sets are rejected
// here rather than discovered mid-run.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults installs the reference critical-control rule set when the
// config defines no safety classes at all.
func (c *Config) applyDefaults() {
	if len(c.Safety.Classes) == 0 {
		c.Safety.Classes = map[string][]SafetyConditionDef{
			string(model.ClassCriticalControl): {
				{Name: "latency", Metric: "avg_latency_ms", Operator: "<", Threshold: 50},
				{Name: "completion_time", Metric: "completion_time_sec", Operator: "<", Threshold: 5},
				{Name: "task", Metric: "task_completed", Operator: "=", Threshold: 1},
			},
		}
	}
}

// Validate checks the device table and safety rule sets for inconsistencies.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("device table is empty")
	}

	names := make(map[string]struct{}, len(c.Devices))
	endpoints := make(map[string]struct{}, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("device %d: name is empty", i)
		}
		if _, dup := names[d.Name]; dup {
			return fmt.Errorf("device %q: duplicate name", d.Name)
		}
		names[d.Name] = struct{}{}

		if d.Address == "" {
			return fmt.Errorf("device %q: address is empty", d.Name)
		}
		endpoint := fmt.Sprintf("%s:%d", d.Address, d.Port)
		if _, dup := endpoints[endpoint]; dup {
			return fmt.Errorf("device %q: address/port %s already mapped", d.Name, endpoint)
		}
		endpoints[endpoint] = struct{}{}

		// A target of zero makes task completion and success rate
		// meaningless for a profile with real traffic.
		if d.TaskTarget == 0 {
			return fmt.Errorf("device %q: task_target must be positive", d.Name)
		}
	}

	for class, conds := range c.Safety.Classes {
		for _, cond := range conds {
			if !evaluate.KnownMetric(cond.Metric) {
				return fmt.Errorf("safety class %q: condition %q references unknown metric %q", class, cond.Name, cond.Metric)
			}
			if !evaluate.KnownOperator(cond.Operator) {
				return fmt.Errorf("safety class %q: condition %q uses unknown operator %q", class, cond.Name, cond.Operator)
			}
			if evaluate.MagnitudeMetric(cond.Metric) && cond.Threshold <= 0 {
				return fmt.Errorf("safety class %q: condition %q needs a positive threshold for metric %q, got %v",
					class, cond.Name, cond.Metric, cond.Threshold)
			}
		}
	}

	if c.Run.Duration != "" {
		if _, err := c.RunDuration(); err != nil {
			return err
		}
	}

	return nil
}

// RunDuration parses the configured run duration. Zero means the run only
// ends on a shutdown signal.
func (c *Config) RunDuration() (time.Duration, error) {
	if c.Run.Duration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Run.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid run duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("run duration must not be negative")
	}
	return d, nil
}

// Profiles converts the device table into resolver profiles.
func (c *Config) Profiles() []model.DeviceProfile {
	profiles := make([]model.DeviceProfile, len(c.Devices))
	for i, d := range c.Devices {
		profiles[i] = model.DeviceProfile{
			Name:       d.Name,
			Class:      model.TrafficClass(d.Class),
			Address:    d.Address,
			Port:       d.Port,
			TaskTarget: d.TaskTarget,
		}
	}
	return profiles
}

// SafetyRules converts the configured rule sets into evaluator rules.
func (c *Config) SafetyRules() map[model.TrafficClass][]model.SafetyCondition {
	rules := make(map[model.TrafficClass][]model.SafetyCondition, len(c.Safety.Classes))
	for class, conds := range c.Safety.Classes {
		list := make([]model.SafetyCondition, len(conds))
		for i, cond := range conds {
			list[i] = model.SafetyCondition{
				Name:      cond.Name,
				Metric:    cond.Metric,
				Operator:  cond.Operator,
				Threshold: cond.Threshold,
			}
		}
		rules[model.TrafficClass(class)] = list
	}
	return rules
}
