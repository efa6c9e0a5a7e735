package stageid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when parsing an empty identifier.
	ErrEmpty = errors.New("identifier cannot be empty")
	// ErrInvalid wraps every other parse failure.
	ErrInvalid = errors.New("invalid identifier")
)

// segmentRegex matches a single segment, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

func isValidSegmentName(name string) bool {
	return name != "-"
}

// Parse builds an Address from its canonical string form.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, ErrEmpty
	}

	addr := &Address{}
	for _, segmentStr := range strings.Split(rawID, ".") {
		if segmentStr == "" {
			return nil, fmt.Errorf("%w: %q contains an empty segment", ErrInvalid, rawID)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("%w: malformed segment %q", ErrInvalid, segmentStr)
		}

		name := matches[1]
		if !isValidSegmentName(name) {
			return nil, fmt.Errorf("%w: reserved segment name %q", ErrInvalid, name)
		}

		segment := NewPathSegment(name)
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return nil, fmt.Errorf("%w: index of %q: %v", ErrInvalid, segmentStr, err)
			}
			segment.Index = index
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}

// MustParse is Parse for identifiers known to be valid. It panics on error.
func MustParse(rawID string) *Address {
	addr, err := Parse(rawID)
	if err != nil {
		panic(fmt.Sprintf("stageid: %v", err))
	}
	return addr
}
