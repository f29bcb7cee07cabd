// Package filetype maps file paths and content to syntax names.
//
// Detection consults, in order: user-registered rules (added via the
// configuration or the plugin API), the interpreter named by a shebang
// line, the file's basename, first-line content signatures, the file
// extension, and finally a few well-known path prefixes. The first
// match wins. An empty result means no filetype could be determined.
package filetype

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DetectKind selects which part of a file a user rule matches against.
type DetectKind int

const (
	// DetectExtension matches the file extension, without the dot.
	DetectExtension DetectKind = iota
	// DetectBasename matches the final path element exactly.
	DetectBasename
	// DetectFilename matches the full path against a regular expression.
	DetectFilename
	// DetectContent matches the first line against a regular expression.
	DetectContent
	// DetectInterpreter matches the interpreter named by a shebang line.
	DetectInterpreter
)

func (k DetectKind) String() string {
	switch k {
	case DetectExtension:
		return "extension"
	case DetectBasename:
		return "basename"
	case DetectFilename:
		return "filename"
	case DetectContent:
		return "content"
	case DetectInterpreter:
		return "interpreter"
	default:
		return fmt.Sprintf("DetectKind(%d)", int(k))
	}
}

type rule struct {
	name    string
	kind    DetectKind
	pattern string
	re      *regexp.Regexp
}

// Detector resolves filetype names. User rules are checked before the
// built-in tables, newest first, so later registrations can override.
// Detector is safe for concurrent use.
type Detector struct {
	mu    sync.RWMutex
	rules []rule
}

// NewDetector returns a Detector with only the built-in tables.
func NewDetector() *Detector {
	return &Detector{}
}

// AddRule registers a user detection rule. Filename and content rules
// take regular expressions and return an error when the pattern does
// not compile.
func (d *Detector) AddRule(name, pattern string, kind DetectKind) error {
	if name == "" || pattern == "" {
		return fmt.Errorf("filetype rule needs a name and a pattern")
	}
	r := rule{name: name, kind: kind, pattern: pattern}
	switch kind {
	case DetectFilename, DetectContent:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("filetype rule %q: %w", name, err)
		}
		r.re = re
	case DetectExtension, DetectBasename, DetectInterpreter:
	default:
		return fmt.Errorf("filetype rule %q: unknown kind %v", name, kind)
	}
	d.mu.Lock()
	d.rules = append(d.rules, r)
	d.mu.Unlock()
	return nil
}

// Detect resolves the filetype for path, using firstLine for shebang
// and content signatures. Either argument may be empty.
func (d *Detector) Detect(path string, firstLine []byte) string {
	base := ""
	ext := ""
	if path != "" {
		base = filepath.Base(path)
		ext = splitExt(base)
	}
	interp := parseInterpreter(firstLine)
	line := string(firstLine)

	d.mu.RLock()
	for i := len(d.rules) - 1; i >= 0; i-- {
		r := &d.rules[i]
		switch r.kind {
		case DetectExtension:
			if ext != "" && ext == r.pattern {
				d.mu.RUnlock()
				return r.name
			}
		case DetectBasename:
			if base != "" && base == r.pattern {
				d.mu.RUnlock()
				return r.name
			}
		case DetectFilename:
			if path != "" && r.re.MatchString(path) {
				d.mu.RUnlock()
				return r.name
			}
		case DetectContent:
			if line != "" && r.re.MatchString(line) {
				d.mu.RUnlock()
				return r.name
			}
		case DetectInterpreter:
			if interp != "" && interp == r.pattern {
				d.mu.RUnlock()
				return r.name
			}
		}
	}
	d.mu.RUnlock()

	if interp != "" {
		if ft, ok := interpreters[interp]; ok {
			return ft
		}
	}
	if base != "" {
		if ft, ok := basenames[base]; ok {
			return ft
		}
	}
	if ft := contentSignature(line); ft != "" {
		return ft
	}
	if ext != "" {
		if ft, ok := extensions[ext]; ok {
			return ft
		}
	}
	return pathPrefix(path, ext)
}

// splitExt extracts the extension from a basename, without the dot.
// A trailing '~' is ignored, and backup suffixes like .orig or .bak
// are skipped in favor of the real extension: file.c.orig yields "c".
func splitExt(base string) string {
	base = strings.TrimSuffix(base, "~")
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return ""
	}
	ext := base[dot+1:]
	if ignoredExts[ext] {
		if inner := splitExt(base[:dot]); inner != "" {
			return inner
		}
	}
	return ext
}

// parseInterpreter extracts the interpreter basename from a shebang
// line, resolving /usr/bin/env indirection: "#!/usr/bin/env python3"
// and "#!/usr/bin/python3" both yield "python3".
func parseInterpreter(firstLine []byte) string {
	line := string(firstLine)
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	line = strings.TrimRight(line[2:], "\r\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	return interp
}

// contentSignature recognizes a few formats by their first line.
func contentSignature(line string) string {
	switch {
	case len(line) >= 14 && strings.EqualFold(line[:14], "<!DOCTYPE html"):
		return "html"
	case strings.HasPrefix(line, "<?xml"):
		return "xml"
	case strings.HasPrefix(line, "diff --git"):
		return "diff"
	default:
		return ""
	}
}

// pathPrefix covers config trees whose files carry no useful name.
func pathPrefix(path, ext string) string {
	switch {
	case strings.HasPrefix(path, "/etc/default/"):
		return "sh"
	case strings.HasPrefix(path, "/etc/nginx/"):
		return "nginx"
	case ext == "conf" && strings.HasPrefix(path, "/etc/systemd/"):
		return "ini"
	case ext == "conf" && strings.HasPrefix(path, "/etc/"):
		return "config"
	default:
		return ""
	}
}
