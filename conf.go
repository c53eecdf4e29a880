package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize     = 1000
	DefaultFlushInterval = 3 // seconds
)

type GlobalTag struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type LogConf struct {
	Level  string `yaml:"level"`
	Silent bool   `yaml:"silent"`
	Folder string `yaml:"folder"`
	File   string `yaml:"file"`
}

type Conf struct {
	BatchSize     int         `yaml:"batch_size"`
	FlushInterval int         `yaml:"flush_interval"` // seconds
	GlobalTags    []GlobalTag `yaml:"global_tags"`
	Logging       LogConf     `yaml:"logging"`
}

func DefaultConf() *Conf {
	return &Conf{
		BatchSize:     DefaultBatchSize,
		FlushInterval: DefaultFlushInterval,
		Logging: LogConf{
			Level: "info",
		},
	}
}

func (c *Conf) flushInterval() time.Duration {
	return time.Duration(c.FlushInterval) * time.Second
}

// Validate checks every setting and reports all problems at once.
func (c *Conf) Validate() error {
	var errs []string

	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("batch_size must be positive, got %d", c.BatchSize))
	}

	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Sprintf("flush_interval must be positive, got %d", c.FlushInterval))
	}

	for i, t := range c.GlobalTags {
		if t.Key == "" {
			errs = append(errs, fmt.Sprintf("global_tags[%d]: key is required", i))
		}
	}

	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Sprintf("logging.level: %s", err))
		}
	}

	if c.Logging.File != "" && c.Logging.Folder == "" {
		errs = append(errs, "logging.folder is required when logging.file is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConf, strings.Join(errs, "; "))
	}

	return nil
}
