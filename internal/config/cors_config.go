package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// ParseAllowedOrigins splits a comma separated origin list, ignoring blanks.
func ParseAllowedOrigins(list string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(list, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		origins[o] = nullValue{}
	}
	return origins
}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(GetEnv("ALLOWED_ORIGINS", "http://localhost:5173"))
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, X-CSRF-Token"
}
