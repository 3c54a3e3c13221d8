// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rate resolves the copper-per-gold multiplier applied to object
// costs. An explicit override wins; otherwise the rate is inferred from the
// coin constants in the game's structs header, and a fixed fallback covers
// every case where inference is not possible.
package rate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Fallback is the rate used when neither an override nor the definitions
// file yields one.
const Fallback int64 = 1000

// Names of the two constants whose product is the rate.
const (
	CopperPerSilver = "COPPER_PER_SILVER"
	SilverPerGold   = "SILVER_PER_GOLD"
)

// Source records where a resolved rate came from.
type Source string

const (
	SourceOverride    Source = "override"
	SourceDefinitions Source = "definitions"
	SourceFallback    Source = "fallback"
)

// Names selects the two constants scanned for. The zero value scans for
// CopperPerSilver and SilverPerGold.
type Names struct {
	// PerMid is the smallest-units-per-intermediate constant.
	PerMid string
	// MidPerBase is the intermediate-units-per-base constant.
	MidPerBase string
}

func (n Names) orDefault() Names {
	if n.PerMid == "" {
		n.PerMid = CopperPerSilver
	}
	if n.MidPerBase == "" {
		n.MidPerBase = SilverPerGold
	}
	return n
}

var (
	// defineRe matches `#define NAME VALUE`.
	defineRe = regexp.MustCompile(`^#\s*define\s+([A-Za-z_][A-Za-z0-9_]*)\s+(.+)$`)
	// assignRe matches `NAME = VALUE`.
	assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?);?$`)
)

// ErrNegativeOverride is returned by CheckOverride for a rate below zero.
var ErrNegativeOverride = errors.New("copper-per-gold override must not be negative")

// CheckOverride rejects a negative override. Zero means "not set".
func CheckOverride(override int64) error {
	if override < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOverride, override)
	}
	return nil
}

// Resolve returns the rate to use and where it came from. A positive
// override is returned as is. Otherwise the definitions file at path is
// scanned; any failure there yields Fallback. Resolve never fails.
func Resolve(override int64, path string, names Names) (int64, Source) {
	if override > 0 {
		return override, SourceOverride
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fallback, SourceFallback
	}
	if r, ok := Infer(data, names); ok {
		return r, SourceDefinitions
	}
	return Fallback, SourceFallback
}

// Infer scans data for the two named constants and returns their product.
// It reports false when either is missing, unparsable, zero, or the product
// is not positive.
func Infer(data []byte, names Names) (int64, bool) {
	names = names.orDefault()
	var perMid, midPerBase int64

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		name, value, ok := definition(strings.TrimSpace(sc.Text()))
		if !ok {
			continue
		}
		switch name {
		case names.PerMid:
			perMid, _ = parseValue(value)
		case names.MidPerBase:
			midPerBase, _ = parseValue(value)
		}
	}

	if perMid == 0 || midPerBase == 0 {
		return 0, false
	}
	product := perMid * midPerBase
	if product <= 0 || product/midPerBase != perMid {
		return 0, false
	}
	return product, true
}

func definition(line string) (name, value string, ok bool) {
	if m := defineRe.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if m := assignRe.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// parseValue strips an integer-literal suffix (10LL, 10UL, 10u) and parses
// what is left as a number, truncating toward zero.
func parseValue(v string) (int64, bool) {
	v = strings.TrimRight(v, "uUlL")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
