package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/rdecheck/rdecheck/api"
	"github.com/rdecheck/rdecheck/api/v1beta1"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

var ErrEmptyConfig = errors.New("empty configuration")

// Validator validates decoded configuration data.
type Validator interface {
	Validate(data any) error
}

type options struct {
	validator Validator
	color     bool
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*options)

// WithValidator replaces the default validator. A nil validator disables
// schema validation.
func WithValidator(v Validator) LoaderOpt {
	return func(o *options) { o.validator = v }
}

// WithColor enables colored source excerpts in errors.
func WithColor(enabled bool) LoaderOpt {
	return func(o *options) { o.color = enabled }
}

// Loader decodes, validates and defaults one configuration document of
// kind T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	ann       *yaml.Annotator
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data. newFunc constructs the
// empty document (e.g. configs.New).
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	o := &options{validator: defaultValidator}
	for _, opt := range opts {
		opt(o)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: o.validator,
		ann:       yaml.NewAnnotator(data, yaml.WithColor(o.color)),
	}
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate checks the document against the validator. An empty document
// returns [ErrEmptyConfig].
func (l *Loader[T]) Validate() error {
	var doc any

	err := l.decode(&doc)
	if errors.Is(err, io.EOF) {
		return ErrEmptyConfig
	}
	if err != nil {
		return err
	}

	if l.validator == nil {
		return nil
	}

	return l.ann.Annotate(l.validator.Validate(doc))
}

// Load decodes the document into a new T and fills in its defaults.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	cfg := l.newFunc()

	err := l.decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		var zero T

		return zero, err
	}

	cfg.EnsureDefaults()

	return cfg, nil
}

func (l *Loader[T]) decode(v any) error {
	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(v)
	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	return l.ann.Annotate(err)
}

// LoadFile validates and loads the document at path. A missing file yields
// the defaults from newFunc.
//
//nolint:ireturn // Generic type parameter return is intentional.
func LoadFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (T, error) {
	var zero T

	l, err := NewLoaderFromFile(path, newFunc, defaultValidator, opts...)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("no configuration file, using defaults", slog.String("path", path))

		return newFunc(), nil
	case err != nil:
		return zero, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := l.Validate(); err != nil {
		return zero, fmt.Errorf("invalid config %q: %w", path, err)
	}

	cfg, err := l.Load()
	if err != nil {
		return zero, fmt.Errorf("invalid config %q: %w", path, err)
	}

	slog.Debug("loaded configuration", slog.String("path", path))

	return cfg, nil
}
