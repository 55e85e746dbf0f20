// Package extract turns raw resource text into typed records.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/mutker/statusblocks/internal/errors"
	"github.com/mitchellh/mapstructure"
)

const patternMismatch = "regex pattern match failed"

// Into matches re against text and decodes its named sub-matches into the
// struct pointed to by out, keyed by `mapstructure` tags. Every field of out
// must be filled. Failures are ErrParse errors tagged with resource.
func Into(re *regexp.Regexp, text, resource string, out any) error {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return errors.NewParse(resource, patternMismatch)
	}

	fields := make(map[string]any, len(match))
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		fields[name] = match[i]
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnset:       true,
		Result:           out,
	})
	if err != nil {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	if err := decoder.Decode(fields); err != nil {
		return errors.NewParse(resource, err.Error())
	}

	return nil
}

// Number parses a resource holding a single number, such as a sysfs file.
func Number(text, resource string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, errors.NewParse(resource, fmt.Sprintf("invalid number %q", strings.TrimSpace(text)))
	}

	return v, nil
}
