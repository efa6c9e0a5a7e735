package config

import (
	"errors"
	"fmt"

	"github.com/vk/stagegrid/internal/stageid"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid pipeline")

// Validate checks the structural rules that do not need the graph: stage
// names are valid and unique by canonical address, every stage has a type,
// and every dependency names a declared stage other than itself.
func (p *Pipeline) Validate() error {
	var errs []error
	names := make(map[string]string, len(p.Stages))
	for _, s := range p.Stages {
		addr, err := stageid.Parse(s.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("stage '%s': %w", s.Name, err))
			continue
		}
		if first, dup := names[addr.String()]; dup {
			if first == s.Name {
				errs = append(errs, fmt.Errorf("stage '%s' is declared more than once", s.Name))
			} else {
				errs = append(errs, fmt.Errorf("stage '%s' is declared more than once (also as '%s')", s.Name, first))
			}
		} else {
			names[addr.String()] = s.Name
		}
		if s.Type == "" {
			errs = append(errs, fmt.Errorf("stage '%s' has no type", s.Name))
		}
	}
	for _, s := range p.Stages {
		self, err := stageid.Parse(s.Name)
		if err != nil {
			continue
		}
		for _, dep := range s.DependsOn {
			addr, err := stageid.Parse(dep)
			if err != nil {
				errs = append(errs, fmt.Errorf("stage '%s' depends on invalid identifier '%s': %w", s.Name, dep, err))
				continue
			}
			if addr.Equal(self) {
				errs = append(errs, fmt.Errorf("stage '%s' depends on itself", s.Name))
				continue
			}
			if _, ok := names[addr.String()]; !ok {
				errs = append(errs, fmt.Errorf("stage '%s' depends on undeclared stage '%s'", s.Name, dep))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
