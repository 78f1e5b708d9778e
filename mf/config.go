package mf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is the process-local, immutable view of the facility's parameters
// (spec §3 SharedConfig). All attached processes must load an identical
// Config to interoperate: it is never stored in the segment itself.
type Config struct {
	ShmemKiB        uint32
	MaxQueues       uint32
	MaxMsgsPerQueue uint32
	ShmemName       string
}

// LoadConfig parses the line-oriented config file format from
// original_source/mf.c's read_config_file: '#'-led comments, and four
// recognized keys, first two whitespace-separated tokens per line.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w: %w", ErrBadConfig, err)
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (Config, error) {
	var (
		cfg        Config
		haveSize   bool
		haveQueues bool
		haveMsgs   bool
		haveName   bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key, value := fields[0], fields[1]
		switch key {
		case "SHMEM_SIZE":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Config{}, fmt.Errorf("%w: SHMEM_SIZE: %w", ErrBadConfig, err)
			}
			cfg.ShmemKiB = uint32(n)
			haveSize = true
		case "MAX_QUEUES_IN_SHMEM":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Config{}, fmt.Errorf("%w: MAX_QUEUES_IN_SHMEM: %w", ErrBadConfig, err)
			}
			cfg.MaxQueues = uint32(n)
			haveQueues = true
		case "MAX_MSGS_IN_QUEUE":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Config{}, fmt.Errorf("%w: MAX_MSGS_IN_QUEUE: %w", ErrBadConfig, err)
			}
			cfg.MaxMsgsPerQueue = uint32(n)
			haveMsgs = true
		case "SHMEM_NAME":
			cfg.ShmemName = strings.TrimPrefix(value, "/")
			haveName = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if !haveSize || !haveQueues || !haveMsgs || !haveName {
		return Config{}, fmt.Errorf("%w: missing required key", ErrBadConfig)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.ShmemKiB < MinShmemSizeKiB || c.ShmemKiB > MaxShmemSizeKiB {
		return fmt.Errorf("%w: SHMEM_SIZE out of range", ErrBadConfig)
	}
	if c.MaxQueues < 1 || c.MaxQueues > 256 {
		return fmt.Errorf("%w: MAX_QUEUES_IN_SHMEM out of range", ErrBadConfig)
	}
	if c.MaxMsgsPerQueue < 1 {
		return fmt.Errorf("%w: MAX_MSGS_IN_QUEUE out of range", ErrBadConfig)
	}
	if c.ShmemName == "" {
		return fmt.Errorf("%w: SHMEM_NAME empty", ErrBadConfig)
	}
	minBytes := int64(headerTableBytes(1)) + int64(InfoSize) + int64(MinMQSizeKiB*1024)
	if int64(c.ShmemKiB)*1024 < minBytes {
		return fmt.Errorf("%w: SHMEM_SIZE too small for header table, info block and one minimal queue", ErrBadConfig)
	}
	return nil
}
