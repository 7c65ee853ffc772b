package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/and161185/clinic-keeper/internal/errs"
)

// dayLayout is the date format accepted on the command line.
const dayLayout = "2006-01-02"

// flags is a FlagSet that remembers which flags were given explicitly, so
// edits can tell "-notes ''" apart from an absent -notes.
type flags struct {
	*flag.FlagSet
	given map[string]bool
}

func newFlags(name string, errOut io.Writer) *flags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return &flags{FlagSet: fs, given: map[string]bool{}}
}

func (f *flags) parse(args []string) error {
	if err := f.Parse(args); err != nil {
		return err
	}
	f.Visit(func(fl *flag.Flag) { f.given[fl.Name] = true })
	return nil
}

// need fails unless every named flag was given.
func (f *flags) need(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.given[n] {
			missing = append(missing, "-"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: need %s", f.Name(), strings.Join(missing, " "))
	}
	return nil
}

// changed returns &v when the flag was given, nil otherwise.
func changed[T any](f *flags, name string, v T) *T {
	if !f.given[name] {
		return nil
	}
	return &v
}

// changedDay is changed for dates in dayLayout.
func changedDay(f *flags, name, v string) (*time.Time, error) {
	if !f.given[name] {
		return nil, nil
	}
	d, err := parseDay(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", errs.ErrValidation, s)
	}
	return d, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
