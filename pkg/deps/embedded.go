package deps

import "github.com/matzehuels/sourcedeps/pkg/deps/objlit"

var (
	versionKeys = []string{"depVersions", "versions", "dependencyVersions"}
	pathKeys    = []string{"depPaths", "paths", "pathPrefixes"}
	baseKeys    = []string{"baseUrl", "baseURL", "staticUrl", "cdnUrl", "publicPath"}
)

// extractEmbedded reads bundler-style configuration objects:
//
//	dependencies: {
//	    baseUrl: "https://static.example.com",
//	    pathPrefix: "/vendor",
//	    depVersions: {react: "18.2.0"},
//	}
func extractEmbedded(text []byte) []Dependency {
	src := string(text)

	var out []Dependency
	for _, v := range objlit.FindKey(src, "dependencies") {
		obj, ok := v.(*objlit.Object)
		if !ok {
			continue
		}
		versions := versionMap(obj)
		if versions == nil {
			continue
		}

		base := firstText(obj, baseKeys)
		if base == "" {
			base = findText(src, baseKeys)
		}
		prefixes, shared := pathPrefixes(obj)

		for _, name := range versions.Keys() {
			version, ok := versions.Text(name)
			if !ok {
				continue
			}
			prefix := shared
			if p, ok := prefixes[name]; ok {
				prefix = p
			}
			out = append(out, Dependency{
				Name:       name,
				Version:    version,
				PathPrefix: prefix,
				BaseURL:    base,
			})
		}
	}
	return out
}

// versionMap returns the first version-map key holding an object with at
// least one scalar value.
func versionMap(obj *objlit.Object) *objlit.Object {
	for _, key := range versionKeys {
		m, ok := obj.Object(key)
		if !ok {
			continue
		}
		for _, k := range m.Keys() {
			if _, ok := m.Text(k); ok {
				return m
			}
		}
	}
	return nil
}

func pathPrefixes(obj *objlit.Object) (map[string]string, string) {
	shared, _ := obj.Text("pathPrefix")
	for _, key := range pathKeys {
		m, ok := obj.Object(key)
		if !ok {
			continue
		}
		out := make(map[string]string, m.Len())
		for _, name := range m.Keys() {
			if p, ok := m.Text(name); ok {
				out[name] = p
			}
		}
		return out, shared
	}
	return nil, shared
}

func firstText(obj *objlit.Object, keys []string) string {
	for _, key := range keys {
		if s, ok := obj.Text(key); ok && s != "" {
			return s
		}
	}
	return ""
}

// findText looks for a top-level `key: "string"` anywhere in src.
func findText(src string, keys []string) string {
	for _, key := range keys {
		for _, v := range objlit.FindKey(src, key) {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
