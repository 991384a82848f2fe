package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/partition"
)

// MaxDotsLimit is the largest accepted max_dots setting.
const MaxDotsLimit = 4

// Options are the notation choices that change rendered output. They are
// recorded with every stored rendering.
type Options struct {
	// MaxDots caps the dots on one value. Longer dotted values are tied.
	MaxDots int `yaml:"max_dots" json:"max_dots"`

	// Syncopation keeps a quarter starting half a beat late as a single
	// value outside triplet beats.
	Syncopation bool `yaml:"syncopation" json:"syncopation"`

	// NotateDurations notates qdur instead of qioi.
	NotateDurations bool `yaml:"notate_durations" json:"notate_durations"`

	// PickupPartial renders pickup bars with \partial.
	PickupPartial bool `yaml:"pickup_partial" json:"pickup_partial"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxDots:       2,
		Syncopation:   true,
		PickupPartial: true,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxDots < 0 || o.MaxDots > MaxDotsLimit {
		return fmt.Errorf("max_dots must be between 0 and %d, got %d", MaxDotsLimit, o.MaxDots)
	}
	return nil
}

// Decomposer returns the duration decomposer for these options.
func (o Options) Decomposer() duration.Decomposer {
	return duration.Decomposer{MaxDots: o.MaxDots}
}

// Partitioner returns the event partitioner for these options.
func (o Options) Partitioner() partition.Partitioner {
	return partition.Partitioner{Decomposer: o.Decomposer()}
}

// String is a stable description used in rendering hashes.
func (o Options) String() string {
	return fmt.Sprintf("max_dots=%d notate_durations=%t pickup_partial=%t syncopation=%t",
		o.MaxDots, o.NotateDurations, o.PickupPartial, o.Syncopation)
}

// ParseConfig decodes a YAML options document. Fields that are absent
// keep their defaults; unknown fields are rejected.
func ParseConfig(data []byte) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("parse config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("parse config: %w", err)
	}
	return opts, nil
}

// LoadConfig reads options from a YAML file.
func LoadConfig(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("load config: %w", err)
	}
	opts, err := ParseConfig(data)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}
