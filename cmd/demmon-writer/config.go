package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	writer "github.com/nm-morais/demmon-writer"
	"github.com/nm-morais/demmon-writer/transport"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DEMMON_WRITER_"

type Configuration struct {
	Writer    writer.Conf    `yaml:"writer"`
	Transport transport.Conf `yaml:"transport"`
}

func defaultConfiguration() Configuration {
	return Configuration{
		Writer: *writer.DefaultConf(),
		Transport: transport.Conf{
			Kind:    transport.KindUDP,
			Addr:    "127.0.0.1:8089",
			Timeout: transport.DefaultTimeout,
		},
	}
}

// loadConfiguration starts from the defaults, overlays the YAML file at
// confpath (if any) and then the environment, and validates the result.
func loadConfiguration(confpath string) (*Configuration, error) {
	conf := defaultConfiguration()

	if confpath != "" {
		f, err := os.Open(confpath)
		if err != nil {
			return nil, fmt.Errorf("opening configuration file: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing configuration file %s: %w", confpath, err)
		}
	}

	if err := applyEnvOverrides(&conf); err != nil {
		return nil, err
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func applyEnvOverrides(conf *Configuration) error {
	if v := os.Getenv(envPrefix + "BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBATCH_SIZE: %w", envPrefix, err)
		}
		conf.Writer.BatchSize = n
	}
	if v := os.Getenv(envPrefix + "FLUSH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sFLUSH_INTERVAL: %w", envPrefix, err)
		}
		conf.Writer.FlushInterval = n
	}

	if v := os.Getenv(envPrefix + "TRANSPORT"); v != "" {
		conf.Transport.Kind = v
	}
	if v := os.Getenv(envPrefix + "ADDR"); v != "" {
		conf.Transport.Addr = v
	}
	if v := os.Getenv(envPrefix + "DATABASE"); v != "" {
		conf.Transport.Database = v
	}
	if v := os.Getenv(envPrefix + "TOKEN"); v != "" {
		conf.Transport.Token = v
	}
	if v := os.Getenv(envPrefix + "PASSWORD"); v != "" {
		conf.Transport.Password = v
	}

	return nil
}

func (c *Configuration) validate() error {
	return errors.Join(c.Writer.Validate(), c.Transport.Validate())
}
