package openxla

import (
	"bytes"
	"io"
	"slices"

	"github.com/gomlx/go-openxla/internal/utils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Options of the conversion pass.
type Options struct {
	// ExecutableSource is the symbol name of the executable source operation that will later receive the
	// compiled kernels. Dispatches refer to kernels as `@<ExecutableSource>::@<kernel>`.
	ExecutableSource string `yaml:"executable_source"`

	// Visibility of the executable source symbol: "private", "public" or "nested".
	Visibility string `yaml:"visibility"`

	// MaxRewrites limits the number of pattern applications. 0 means a default that depends on the size of
	// the module.
	MaxRewrites int `yaml:"max_rewrites"`

	// IllegalDialects are the dialects that must be fully converted.
	IllegalDialects []string `yaml:"illegal_dialects"`
}

// DefaultOptions returns the options used by Run when none are given.
func DefaultOptions() Options {
	return Options{
		ExecutableSource: "xla.module.ptx",
		Visibility:       "private",
		IllegalDialects:  []string{"lmhlo", "memref"},
	}
}

var validVisibilities = utils.MakeSet("private", "public", "nested")

// Validate returns an error if the options are not usable.
func (o Options) Validate() error {
	if o.ExecutableSource == "" {
		return errors.New("executable_source cannot be empty")
	}
	if !validVisibilities.Has(o.Visibility) {
		return errors.Errorf("invalid visibility %q, valid values are \"private\", \"public\" and \"nested\"",
			o.Visibility)
	}
	if o.MaxRewrites < 0 {
		return errors.Errorf("max_rewrites must be >= 0, got %d", o.MaxRewrites)
	}
	if len(o.IllegalDialects) == 0 {
		return errors.New("illegal_dialects cannot be empty")
	}
	if slices.Contains(o.IllegalDialects, "") {
		return errors.New("illegal_dialects cannot contain an empty dialect name")
	}
	for _, legal := range legalDialects {
		if slices.Contains(o.IllegalDialects, legal) {
			return errors.Errorf("dialect %q is produced by the conversion and cannot be illegal", legal)
		}
	}
	return nil
}

// ParseOptions reads options in YAML format. Fields not given keep their DefaultOptions value, and unknown
// fields are rejected.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, errors.Wrap(err, "failed to parse openxla options")
	}
	if err := opts.Validate(); err != nil {
		return Options{}, errors.WithMessage(err, "invalid openxla options")
	}
	return opts, nil
}
