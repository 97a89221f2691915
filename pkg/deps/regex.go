package deps

import (
	"regexp"
	"strings"
)

var (
	blockStart = regexp.MustCompile(`["']?\b(?:dependencies|devDependencies|peerDependencies|depVersions|dependencyVersions)["']?\s*[:=]\s*\{`)
	pairRe     = regexp.MustCompile(`["']((?:@[\w.~-]+/)?[\w.~-]+)["']\s*:\s*["']([^"'\s]{1,64})["']`)
	versionRe  = regexp.MustCompile(`^(?:[~^]|[<>]=?|=)?v?\d+(?:\.(?:\d+|x|\*)){0,3}(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

// metaKeys are package-metadata fields that look like pairs but never name
// a dependency.
var metaKeys = map[string]bool{
	"name": true, "version": true, "main": true, "module": true, "types": true,
	"typings": true, "license": true, "description": true, "homepage": true,
	"author": true, "node": true, "npm": true, "yarn": true, "browser": true,
}

// extractRegex is the last resort: it pulls "name": "version" pairs out of
// dependency blocks, or out of the whole text when no block is found.
func extractRegex(text []byte) []Dependency {
	src := string(text)

	var out []Dependency
	for _, loc := range blockStart.FindAllStringIndex(src, -1) {
		open := loc[1] - 1
		out = append(out, pairs(src[open:blockEnd(src, open)])...)
	}
	if len(out) == 0 {
		out = pairs(src)
	}
	return out
}

func pairs(src string) []Dependency {
	var out []Dependency
	for _, m := range pairRe.FindAllStringSubmatch(src, -1) {
		name, version := m[1], m[2]
		if metaKeys[strings.ToLower(name)] || !versionRe.MatchString(version) {
			continue
		}
		out = append(out, Dependency{Name: name, Version: version})
	}
	return out
}

// blockEnd returns the offset just past the brace matching src[open].
// Unbalanced blocks run to the end of src.
func blockEnd(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}
