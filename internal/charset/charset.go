// Package charset holds the closed registry of named plaintext character
// sets that rainbow tables are built over. Names and byte content follow
// the conventions of the original RainbowCrack / rcracki_mt table family.
package charset

import "fmt"

// ErrUnknownCharset is returned by Lookup for any name not in the registry.
var ErrUnknownCharset = fmt.Errorf("charset: unknown name")

var registry = map[string][]byte{
	"numeric":                      buildRange('0', '9'),
	"alpha":                        buildRange('A', 'Z'),
	"alpha-numeric":                concat(buildRange('A', 'Z'), buildRange('0', '9')),
	"loweralpha":                   buildRange('a', 'z'),
	"loweralpha-numeric":           concat(buildRange('a', 'z'), buildRange('0', '9')),
	"mixalpha":                     concat(buildRange('A', 'Z'), buildRange('a', 'z')),
	"mixalpha-numeric":             concat(buildRange('A', 'Z'), buildRange('a', 'z'), buildRange('0', '9')),
	"ascii-32-95":                  buildRange(0x20, 0x7e),
	"ascii-32-65-123-4":            concat(buildRange(0x20, 0x60), buildRange(0x7b, 0x7e)),
	"alpha-numeric-symbol32-space": concat(buildRange('A', 'Z'), buildRange('0', '9'), []byte(" !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~")),
}

func buildRange(lo, hi byte) []byte {
	out := make([]byte, 0, int(hi-lo)+1)
	for c := lo; c <= hi; c++ {
		out = append(out, c)
	}
	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Lookup returns the raw bytes of the named charset. The returned slice
// must not be mutated by callers.
func Lookup(name string) ([]byte, error) {
	cs, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return cs, nil
}

// Names returns the registered charset names, for usage/help text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
